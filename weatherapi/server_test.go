package weatherapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"weatherid/token"
	"weatherid/weatherapi"
)

const (
	testIssuer   = "http://localhost:5001"
	testAudience = "weatherapi"
)

type apiFixture struct {
	ts      *httptest.Server
	manager *token.Manager
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	signer := token.NewHMACSigner([]byte("test-signing-secret-at-least-32b"))
	manager := token.NewManager(testIssuer, signer)
	validator := token.NewValidator(testIssuer, signer)

	api := weatherapi.New(weatherapi.Config{
		Audience:      testAudience,
		RequiredScope: "weatherapi.read",
	}, validator, zerolog.Nop())

	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)
	return &apiFixture{ts: ts, manager: manager}
}

func (f *apiFixture) get(t *testing.T, bearer string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/weatherforecast", nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (f *apiFixture) tokenWithScopes(t *testing.T, scopes ...string) string {
	t.Helper()
	identity := token.Identity{Subject: "user-1", Email: "alice@example.com"}
	raw, _, err := f.manager.IssueAccessToken(identity, "weathermvc", []string{testAudience}, scopes)
	require.NoError(t, err)
	return raw
}

func TestForecast_HappyPath(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.get(t, f.tokenWithScopes(t, "openid", "weatherapi.read"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var forecasts []weatherapi.Forecast
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&forecasts))
	require.Len(t, forecasts, 5)
	for _, forecast := range forecasts {
		require.NotEmpty(t, forecast.Date)
		require.NotEmpty(t, forecast.Summary)
		require.GreaterOrEqual(t, forecast.TemperatureC, -20)
		require.LessOrEqual(t, forecast.TemperatureC, 55)
	}
}

func TestForecast_MissingToken(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.get(t, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, resp.Header.Get("WWW-Authenticate"), "invalid_token")
}

func TestForecast_GarbageToken(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.get(t, "not-a-jwt")
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestForecast_MissingScopeIsForbidden(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.get(t, f.tokenWithScopes(t, "openid", "profile"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Contains(t, resp.Header.Get("WWW-Authenticate"), "insufficient_scope")
}

func TestForecast_ExpiredToken(t *testing.T) {
	signer := token.NewHMACSigner([]byte("test-signing-secret-at-least-32b"))
	past := time.Now().Add(-2 * time.Hour)
	manager := token.NewManager(testIssuer, signer, token.WithNowFunc(func() time.Time { return past }))
	validator := token.NewValidator(testIssuer, signer)

	api := weatherapi.New(weatherapi.Config{
		Audience:      testAudience,
		RequiredScope: "weatherapi.read",
	}, validator, zerolog.Nop())
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	identity := token.Identity{Subject: "user-1"}
	raw, _, err := manager.IssueAccessToken(identity, "weathermvc", []string{testAudience}, []string{"weatherapi.read"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/weatherforecast", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+raw)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGenerateForecasts_DatesStartTomorrow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	forecasts := weatherapi.GenerateForecasts(now, 5)
	require.Len(t, forecasts, 5)
	require.Equal(t, "2026-03-11", forecasts[0].Date)
	require.Equal(t, "2026-03-15", forecasts[4].Date)
}
