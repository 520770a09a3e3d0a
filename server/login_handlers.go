package server

import (
	"html/template"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"weatherid/auth"
	"weatherid/oauth2"
)

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Sign in</title></head>
<body>
  <h1>Sign in</h1>
  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
  <form method="post" action="{{.Action}}">
    <label>Email <input type="email" name="email" value="{{.Email}}" autofocus></label>
    <label>Password <input type="password" name="password"></label>
    <button type="submit">Sign in</button>
  </form>
</body>
</html>
`))

type loginPageData struct {
	Action string
	Email  string
	Error  string
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, data loginPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := loginTemplate.Execute(w, data); err != nil {
		s.logger.Error().Err(err).Msg("render login page")
	}
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, http.StatusOK, loginPageData{
		Action: "/auth/login?" + r.URL.RawQuery,
	})
}

// handleLoginSubmit authenticates the user and completes the authorization
// request carried in the query string. The request is re-validated here:
// the form round-trip is not trusted to preserve it.
func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}
	params := oauth2.ParseAuthorizationParameters(r.URL.Query())
	result, authErr := s.service.ValidateAuthorization(r.Context(), params)
	if authErr != nil {
		s.writeAuthorizeError(w, r, params, authErr)
		return
	}

	email := r.PostFormValue("email")
	user, err := s.service.Login(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, auth.ErrAuthenticationFailed) {
			s.renderLogin(w, http.StatusUnauthorized, loginPageData{
				Action: "/auth/login?" + r.URL.RawQuery,
				Email:  email,
				Error:  "Invalid email or password.",
			})
			return
		}
		s.logger.Error().Err(err).Msg("login failed")
		s.writeAuthorizeError(w, r, params, &auth.AuthorizeError{
			Err:          oauth2.NewError(oauth2.ErrServerError, "internal error"),
			Redirectable: true,
		})
		return
	}

	code, err := s.service.IssueCode(r.Context(), result, user)
	if err != nil {
		s.logger.Error().Err(err).Msg("issue code failed")
		s.writeAuthorizeError(w, r, params, &auth.AuthorizeError{
			Err:          oauth2.NewError(oauth2.ErrServerError, "internal error"),
			Redirectable: true,
		})
		return
	}

	values := url.Values{"code": {code}}
	if params.State != "" {
		values.Set("state", params.State)
	}
	s.callbackRedirect(w, r, result.Params.RedirectURI, result.Params.ResponseMode, values)
}
