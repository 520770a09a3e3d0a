package token

import (
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Validator checks bearer tokens for a resource server: signature, issuer,
// audience, lifetime and scope. Failures come back as the package's tagged
// errors so the HTTP layer can split 401 from 403.
type Validator struct {
	issuer  string
	keyfunc jwt.Keyfunc
	methods []string
	leeway  time.Duration
	nowFunc func() time.Time
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithLeeway sets the clock-skew tolerance applied to exp and nbf.
func WithLeeway(leeway time.Duration) ValidatorOption {
	return func(v *Validator) { v.leeway = leeway }
}

// WithValidatorNowFunc overrides the validator's clock.
func WithValidatorNowFunc(now func() time.Time) ValidatorOption {
	return func(v *Validator) { v.nowFunc = now }
}

// NewValidator builds a validator sharing the signer's verification key.
// This is the in-process arrangement, where issuer and resource server run
// in the same deployment.
func NewValidator(issuer string, signer Signer, opts ...ValidatorOption) *Validator {
	key := signer.GetVerificationKey()
	return newValidator(issuer, []string{signer.GetSigningMethod().Alg()},
		func(*jwt.Token) (any, error) { return key, nil }, opts...)
}

// NewJWKSValidator builds a validator from a published key set, resolving
// keys by the token's kid header. This is the cross-process arrangement:
// the resource server fetched the set from the issuer's jwks endpoint.
func NewJWKSValidator(issuer string, keys JWKS, opts ...ValidatorOption) *Validator {
	return newValidator(issuer, []string{"RS256"}, func(tok *jwt.Token) (any, error) {
		kid, _ := tok.Header["kid"].(string)
		return keys.PublicKey(kid)
	}, opts...)
}

func newValidator(issuer string, methods []string, keyfunc jwt.Keyfunc, opts ...ValidatorOption) *Validator {
	v := &Validator{
		issuer:  issuer,
		keyfunc: keyfunc,
		methods: methods,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate parses and checks a compact token. audience must appear in the
// aud claim and every required scope in the scope claim.
func (v *Validator) Validate(raw, audience string, requiredScopes ...string) (*AccessClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods(v.methods),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.nowFunc),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	claims := &AccessClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, v.keyfunc); err != nil {
		return nil, tagParseError(err)
	}
	for _, required := range requiredScopes {
		if !claims.HasScope(required) {
			return nil, errors.Wrapf(ErrInsufficientScope, "scope %q", required)
		}
	}
	return claims, nil
}

func tagParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuerMismatch
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrAudienceMismatch
	default:
		return errors.Wrap(ErrMalformed, err.Error())
	}
}

// PublicKey resolves a key from the set by kid. An empty kid matches a
// single-key set, which is what this server publishes.
func (s JWKS) PublicKey(kid string) (*rsa.PublicKey, error) {
	for _, key := range s.Keys {
		if key.Kid == kid || (kid == "" && len(s.Keys) == 1) {
			return key.RSAPublicKey()
		}
	}
	return nil, errors.Errorf("no key %q in jwks", kid)
}

// RSAPublicKey decodes the JWK's modulus and exponent.
func (j JWK) RSAPublicKey() (*rsa.PublicKey, error) {
	if j.Kty != "RSA" {
		return nil, errors.Errorf("unsupported key type %q", j.Kty)
	}
	n, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, errors.Wrap(err, "jwk modulus")
	}
	e, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, errors.Wrap(err, "jwk exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}
