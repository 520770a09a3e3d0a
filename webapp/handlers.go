package webapp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"weatherid/pkce"
	"weatherid/weatherapi"
	"weatherid/webapp/flowrepo"
	"weatherid/webapp/sessionrepo"
)

func (a *App) renderError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = errorTemplate.Execute(w, struct{ Message string }{Message: message})
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	var email string
	if session := a.sessionFromRequest(r); session != nil {
		email = session.Email
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexTemplate.Execute(w, struct{ Email string }{Email: email})
}

// handleWeather is the protected page. Without a live session it starts
// the authorization flow; with one it calls the API and renders the table.
func (a *App) handleWeather(w http.ResponseWriter, r *http.Request) {
	session := a.sessionFromRequest(r)
	if session == nil {
		a.startAuthFlow(w, r, "/weather")
		return
	}
	if !a.nowFunc().Before(session.TokenExpiry) {
		// Token expired and there is no refresh token: sign in again.
		_ = a.sessions.Delete(r.Context(), session.ID)
		a.clearSessionCookie(w)
		a.startAuthFlow(w, r, "/weather")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet,
		a.cfg.WeatherAPIURL+"/weatherforecast", nil)
	if err != nil {
		a.renderError(w, http.StatusInternalServerError, "Could not build the forecast request.")
		return
	}
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Warn().Err(err).Msg("weather api unreachable")
		a.renderError(w, http.StatusGatewayTimeout, "The weather service did not respond. Please try again.")
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		// The API no longer accepts the token: drop the session and re-auth.
		_ = a.sessions.Delete(r.Context(), session.ID)
		a.clearSessionCookie(w)
		a.startAuthFlow(w, r, "/weather")
		return
	case http.StatusForbidden:
		a.renderError(w, http.StatusForbidden, "Your account does not have permission to read the forecast.")
		return
	default:
		a.logger.Warn().Int("status", resp.StatusCode).Msg("weather api error")
		a.renderError(w, http.StatusBadGateway, "The weather service returned an error.")
		return
	}

	var forecasts []weatherapi.Forecast
	if err := json.NewDecoder(resp.Body).Decode(&forecasts); err != nil {
		a.renderError(w, http.StatusBadGateway, "The weather service returned an unreadable response.")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = weatherTemplate.Execute(w, struct {
		Email     string
		Forecasts []weatherapi.Forecast
	}{Email: session.Email, Forecasts: forecasts})
}

// startAuthFlow generates PKCE and anti-CSRF material, records the flow
// and redirects the browser to the identity provider.
func (a *App) startAuthFlow(w http.ResponseWriter, r *http.Request, returnURL string) {
	pair, err := pkce.NewPair()
	if err != nil {
		a.renderError(w, http.StatusInternalServerError, "Could not start the sign-in flow.")
		return
	}
	state, err := randomToken()
	if err != nil {
		a.renderError(w, http.StatusInternalServerError, "Could not start the sign-in flow.")
		return
	}
	nonce, err := randomToken()
	if err != nil {
		a.renderError(w, http.StatusInternalServerError, "Could not start the sign-in flow.")
		return
	}

	flow := &flowrepo.AuthFlowState{
		State:     state,
		Verifier:  pair.Verifier,
		Nonce:     nonce,
		ReturnURL: returnURL,
		CreatedAt: a.nowFunc(),
	}
	if err := a.flows.Save(r.Context(), flow); err != nil {
		a.renderError(w, http.StatusInternalServerError, "Could not start the sign-in flow.")
		return
	}

	authURL := a.oauthCfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", pair.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("nonce", nonce),
	)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleCallback finishes the flow: state check, code exchange, ID token
// verification, session creation. The state must match a stored flow
// before any exchange is attempted.
func (a *App) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if errCode := query.Get("error"); errCode != "" {
		description := query.Get("error_description")
		a.logger.Warn().Str("error", errCode).Str("description", description).Msg("authorization denied")
		a.renderError(w, http.StatusBadRequest, "Sign-in failed: "+errCode)
		return
	}

	flow, err := a.flows.Take(r.Context(), query.Get("state"))
	if err != nil {
		a.renderError(w, http.StatusBadRequest, "Sign-in failed: the state value does not match an active sign-in.")
		return
	}
	code := query.Get("code")
	if code == "" {
		a.renderError(w, http.StatusBadRequest, "Sign-in failed: no authorization code in the callback.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.cfg.HTTPTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	tok, err := a.oauthCfg.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", flow.Verifier))
	if err != nil {
		a.logger.Warn().Err(err).Msg("token exchange failed")
		a.renderError(w, http.StatusBadGateway, "Sign-in failed: the identity provider rejected the code exchange.")
		return
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		a.renderError(w, http.StatusBadGateway, "Sign-in failed: no ID token in the response.")
		return
	}
	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		a.logger.Warn().Err(err).Msg("id token verification failed")
		a.renderError(w, http.StatusBadGateway, "Sign-in failed: the ID token did not verify.")
		return
	}
	if idToken.Nonce != flow.Nonce {
		a.renderError(w, http.StatusBadRequest, "Sign-in failed: the nonce does not match.")
		return
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		a.logger.Warn().Err(err).Msg("id token claims unreadable")
	}

	session := &sessionrepo.Session{
		ID:          uuid.NewString(),
		Subject:     idToken.Subject,
		Email:       claims.Email,
		Name:        claims.Name,
		AccessToken: tok.AccessToken,
		IDToken:     rawIDToken,
		TokenExpiry: tok.Expiry,
		CreatedAt:   a.nowFunc(),
	}
	if err := a.sessions.Save(r.Context(), session); err != nil {
		a.renderError(w, http.StatusInternalServerError, "Sign-in failed: could not store the session.")
		return
	}
	a.setSessionCookie(w, session.ID)

	returnURL := flow.ReturnURL
	if returnURL == "" {
		returnURL = "/"
	}
	http.Redirect(w, r, returnURL, http.StatusFound)
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if session := a.sessionFromRequest(r); session != nil {
		_ = a.sessions.Delete(r.Context(), session.ID)
	}
	a.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}
