package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer abstracts the signing algorithm so the manager and validator do
// not care whether tokens are HMAC or RSA signed.
type Signer interface {
	Sign(claims jwt.Claims) (string, error)
	GetSigningMethod() jwt.SigningMethod
	GetVerificationKey() any
	KeyID() string
}

// HMACSigner signs with a shared secret. Suitable when issuer and
// validator are the same deployment; no key can be published for it.
type HMACSigner struct {
	secret []byte
}

func NewHMACSigner(secret []byte) *HMACSigner {
	return &HMACSigner{secret: secret}
}

func (s *HMACSigner) Sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return signed, errors.Wrap(err, "token.HMACSigner.Sign")
}

func (s *HMACSigner) GetSigningMethod() jwt.SigningMethod { return jwt.SigningMethodHS256 }
func (s *HMACSigner) GetVerificationKey() any             { return s.secret }
func (s *HMACSigner) KeyID() string                       { return "" }

// KeyPairSigner signs RS256 with an RSA key pair and stamps the kid header
// so validators can pick the key out of the jwks document.
type KeyPairSigner struct {
	keyPair *KeyPair
}

func NewKeyPairSigner(keyPair *KeyPair) *KeyPairSigner {
	return &KeyPairSigner{keyPair: keyPair}
}

func (s *KeyPairSigner) Sign(claims jwt.Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = s.keyPair.KID
	signed, err := tok.SignedString(s.keyPair.Private)
	return signed, errors.Wrap(err, "token.KeyPairSigner.Sign")
}

func (s *KeyPairSigner) GetSigningMethod() jwt.SigningMethod { return jwt.SigningMethodRS256 }
func (s *KeyPairSigner) GetVerificationKey() any             { return &s.keyPair.Private.PublicKey }
func (s *KeyPairSigner) KeyID() string                       { return s.keyPair.KID }

// JWKS returns the published key set for the signer's verification key.
func (s *KeyPairSigner) JWKS() JWKS {
	return JWKS{Keys: []JWK{s.keyPair.ToJWK()}}
}
