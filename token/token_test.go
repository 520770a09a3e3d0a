package token_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"weatherid/token"
)

const (
	testIssuer   = "http://localhost:5001"
	testAudience = "weatherapi"
)

type fixture struct {
	keyPair   *token.KeyPair
	signer    *token.KeyPairSigner
	manager   *token.Manager
	validator *token.Validator
	now       time.Time
}

func newFixture(t *testing.T, opts ...token.ManagerOption) *fixture {
	t.Helper()
	keyPair, err := token.GenerateRSAKeyPair()
	require.NoError(t, err)
	signer := token.NewKeyPairSigner(keyPair)
	now := time.Now().Truncate(time.Second)

	managerOpts := append([]token.ManagerOption{
		token.WithNowFunc(func() time.Time { return now }),
	}, opts...)

	return &fixture{
		keyPair:   keyPair,
		signer:    signer,
		manager:   token.NewManager(testIssuer, signer, managerOpts...),
		validator: token.NewValidator(testIssuer, signer),
		now:       now,
	}
}

func (f *fixture) accessToken(t *testing.T, scopes ...string) string {
	t.Helper()
	identity := token.Identity{Subject: "user-1", Email: "alice@example.com", Name: "Alice"}
	raw, expiresIn, err := f.manager.IssueAccessToken(identity, "weathermvc", []string{testAudience}, scopes)
	require.NoError(t, err)
	require.Equal(t, int64(3600), expiresIn)
	return raw
}

func TestValidate_HappyPath(t *testing.T) {
	f := newFixture(t)
	raw := f.accessToken(t, "openid", "weatherapi.read")

	claims, err := f.validator.Validate(raw, testAudience, "weatherapi.read")
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "weathermvc", claims.ClientID)
	require.Equal(t, []string{"openid", "weatherapi.read"}, claims.Scopes())
	require.Equal(t, f.now.Unix(), claims.IssuedAt.Unix())
	require.Equal(t, f.now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	require.NotEmpty(t, claims.ID)
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	raw := f.accessToken(t, "weatherapi.read")
	expiry := f.now.Add(time.Hour)

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{"one second before expiry", expiry.Add(-time.Second), nil},
		{"one second after expiry", expiry.Add(time.Second), token.ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := token.NewValidator(testIssuer, f.signer,
				token.WithValidatorNowFunc(func() time.Time { return tt.at }))
			_, err := validator.Validate(raw, testAudience, "weatherapi.read")
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_LeewayAbsorbsSkew(t *testing.T) {
	f := newFixture(t)
	raw := f.accessToken(t, "weatherapi.read")
	justExpired := f.now.Add(time.Hour + 30*time.Second)

	validator := token.NewValidator(testIssuer, f.signer,
		token.WithLeeway(time.Minute),
		token.WithValidatorNowFunc(func() time.Time { return justExpired }))
	_, err := validator.Validate(raw, testAudience)
	require.NoError(t, err)
}

func TestValidate_AudienceMismatch(t *testing.T) {
	f := newFixture(t)
	raw := f.accessToken(t, "weatherapi.read")

	_, err := f.validator.Validate(raw, "inventoryapi")
	require.ErrorIs(t, err, token.ErrAudienceMismatch)
}

func TestValidate_InsufficientScope(t *testing.T) {
	f := newFixture(t)
	raw := f.accessToken(t, "openid", "profile")

	_, err := f.validator.Validate(raw, testAudience, "weatherapi.read")
	require.ErrorIs(t, err, token.ErrInsufficientScope)
}

func TestValidate_SignatureFromOtherKey(t *testing.T) {
	f := newFixture(t)
	raw := f.accessToken(t, "weatherapi.read")

	otherPair, err := token.GenerateRSAKeyPair()
	require.NoError(t, err)
	validator := token.NewValidator(testIssuer, token.NewKeyPairSigner(otherPair))

	_, err = validator.Validate(raw, testAudience)
	require.ErrorIs(t, err, token.ErrSignatureInvalid)
}

func TestValidate_IssuerMismatch(t *testing.T) {
	f := newFixture(t)
	raw := f.accessToken(t, "weatherapi.read")

	validator := token.NewValidator("http://other-issuer:9999", f.signer)
	_, err := validator.Validate(raw, testAudience)
	require.ErrorIs(t, err, token.ErrIssuerMismatch)
}

func TestValidate_Malformed(t *testing.T) {
	f := newFixture(t)
	_, err := f.validator.Validate("not.a.jwt", testAudience)
	require.ErrorIs(t, err, token.ErrMalformed)
}

func TestValidate_TamperedPayload(t *testing.T) {
	f := newFixture(t)
	raw := f.accessToken(t, "weatherapi.read")

	tampered := []byte(raw)
	for i := len(tampered) - 1; i >= 0; i-- {
		if tampered[i] == '.' {
			tampered[i-1] ^= 0x01
			break
		}
	}
	_, err := f.validator.Validate(string(tampered), testAudience)
	require.Error(t, err)
}

func TestJWKSValidator_RoundTrip(t *testing.T) {
	f := newFixture(t)
	raw := f.accessToken(t, "weatherapi.read")

	// Serialize and re-parse the key set, the way a resource server sees it.
	data, err := json.Marshal(f.signer.JWKS())
	require.NoError(t, err)
	var keys token.JWKS
	require.NoError(t, json.Unmarshal(data, &keys))

	validator := token.NewJWKSValidator(testIssuer, keys)
	claims, err := validator.Validate(raw, testAudience, "weatherapi.read")
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
}

func TestHMACSigner_RoundTrip(t *testing.T) {
	signer := token.NewHMACSigner([]byte("a-very-long-shared-secret-value!"))
	now := time.Now().Truncate(time.Second)
	manager := token.NewManager(testIssuer, signer,
		token.WithNowFunc(func() time.Time { return now }))

	identity := token.Identity{Subject: "user-1", Email: "alice@example.com"}
	raw, _, err := manager.IssueAccessToken(identity, "cli", []string{testAudience}, []string{"weatherapi.read"})
	require.NoError(t, err)

	validator := token.NewValidator(testIssuer, signer)
	claims, err := validator.Validate(raw, testAudience, "weatherapi.read")
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
}

func TestIssueIDToken_CarriesNonce(t *testing.T) {
	f := newFixture(t)
	identity := token.Identity{Subject: "user-1", Email: "alice@example.com", Name: "Alice"}
	raw, err := f.manager.IssueIDToken(identity, "weathermvc", "nonce-123")
	require.NoError(t, err)

	claims, err := f.validator.Validate(raw, "weathermvc")
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "alice@example.com", claims.Email)
}

func TestKeyPairPEM_RoundTrip(t *testing.T) {
	keyPair, err := token.GenerateRSAKeyPair()
	require.NoError(t, err)

	data, err := keyPair.EncodePrivateKeyPEM()
	require.NoError(t, err)

	loaded, err := token.LoadPrivateKeyPEM(data, keyPair.KID)
	require.NoError(t, err)
	require.True(t, keyPair.Private.Equal(loaded.Private))
	require.Equal(t, keyPair.KID, loaded.KID)
}
