package token

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"math/big"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// KeyPair is an RSA signing key with its published key id.
type KeyPair struct {
	Private *rsa.PrivateKey
	KID     string
}

// GenerateRSAKeyPair creates a fresh 2048-bit signing key with a random kid.
func GenerateRSAKeyPair() (*KeyPair, error) {
	private, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, errors.Wrap(err, "token.GenerateRSAKeyPair")
	}
	return &KeyPair{Private: private, KID: uuid.NewString()}, nil
}

// JWK is the published form of a verification key, RFC 7517.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is the key set served at the jwks endpoint.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// ToJWK exports the public half for the jwks endpoint.
func (k *KeyPair) ToJWK() JWK {
	public := &k.Private.PublicKey
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		Kid: k.KID,
		N:   base64.RawURLEncoding.EncodeToString(public.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(public.E)).Bytes()),
	}
}

// EncodePrivateKeyPEM serializes the private key in PKCS#8 PEM form.
func (k *KeyPair) EncodePrivateKeyPEM() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(k.Private)
	if err != nil {
		return nil, errors.Wrap(err, "token.EncodePrivateKeyPEM")
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// LoadPrivateKeyPEM parses a PKCS#8 or PKCS#1 PEM private key.
func LoadPrivateKeyPEM(data []byte, kid string) (*KeyPair, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("token.LoadPrivateKeyPEM no PEM block")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("token.LoadPrivateKeyPEM not an RSA key")
		}
		return &KeyPair{Private: rsaKey, KID: kid}, nil
	}
	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "token.LoadPrivateKeyPEM")
	}
	return &KeyPair{Private: rsaKey, KID: kid}, nil
}
