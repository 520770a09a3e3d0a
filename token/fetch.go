package token

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

// FetchJWKS resolves the issuer's discovery document and downloads its key
// set. Resource servers call this at startup; the deadline on ctx bounds
// how long an unreachable issuer can stall boot.
func FetchJWKS(ctx context.Context, client *http.Client, issuer string) (JWKS, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var discovery struct {
		JWKSURI string `json:"jwks_uri"`
	}
	if err := getJSON(ctx, client, issuer+"/.well-known/openid-configuration", &discovery); err != nil {
		return JWKS{}, errors.Wrap(err, "token.FetchJWKS discovery")
	}
	if discovery.JWKSURI == "" {
		return JWKS{}, errors.New("token.FetchJWKS discovery document has no jwks_uri")
	}

	var keys JWKS
	if err := getJSON(ctx, client, discovery.JWKSURI, &keys); err != nil {
		return JWKS{}, errors.Wrap(err, "token.FetchJWKS keys")
	}
	if len(keys.Keys) == 0 {
		return JWKS{}, errors.New("token.FetchJWKS empty key set")
	}
	return keys, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
