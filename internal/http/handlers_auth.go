package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gottabeautomated/WILMA-Mk1/internal/auth"
	applog "github.com/gottabeautomated/WILMA-Mk1/internal/log"
)

type authPageData struct {
	Email string
	Error string
}

func (s *Server) renderAuthPage(w http.ResponseWriter, r *http.Request, name string, status int, data authPageData) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Auth template execution failed", applog.FieldError, err, "template", name)
	}
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.renderAuthPage(w, r, "register.html", http.StatusOK, authPageData{})
}

// handleRegister creates a new account. The password confirmation is checked
// before the account provider is involved at all; a mismatch never reaches
// the store. On success the user lands on the login page without a session.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderAuthPage(w, r, "register.html", http.StatusBadRequest,
			authPageData{Error: "Ungültiges Anfrageformat"})
		return
	}

	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	confirm := r.PostForm.Get("confirm_password")

	if password != confirm {
		s.renderAuthPage(w, r, "register.html", http.StatusUnprocessableEntity,
			authPageData{Email: email, Error: "Passwörter stimmen nicht überein."})
		return
	}

	_, err := s.authSvc.CreateAccount(r.Context(), email, password)
	if err != nil {
		s.renderAuthPage(w, r, "register.html", http.StatusUnprocessableEntity,
			authPageData{Email: email, Error: registrationErrorMessage(err)})
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Account registered", applog.FieldEmail, email)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// registrationErrorMessage translates provider errors into the messages the
// registration form shows. Unexpected errors get a generic retry text.
func registrationErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		return "Diese E-Mail-Adresse wird bereits verwendet."
	case errors.Is(err, auth.ErrWeakPassword):
		return "Das Passwort ist zu schwach (mindestens 6 Zeichen benötigt)."
	case errors.Is(err, auth.ErrInvalidEmail):
		return "Bitte eine gültige E-Mail-Adresse angeben."
	default:
		return "Registrierung fehlgeschlagen. Bitte versuchen Sie es erneut."
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderAuthPage(w, r, "login.html", http.StatusOK, authPageData{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderAuthPage(w, r, "login.html", http.StatusBadRequest,
			authPageData{Error: "Ungültiges Anfrageformat"})
		return
	}

	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")

	user, err := s.authSvc.Authenticate(r.Context(), email, password)
	if err != nil {
		s.renderAuthPage(w, r, "login.html", http.StatusUnauthorized,
			authPageData{Email: email, Error: "Ungültige E-Mail-Adresse oder Passwort."})
		return
	}

	token, err := s.authSvc.IssueSession(r.Context(), user.ID)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to issue session", applog.FieldError, err, applog.FieldUserID, user.ID)
		s.renderAuthPage(w, r, "login.html", http.StatusInternalServerError,
			authPageData{Email: email, Error: "Anmeldung fehlgeschlagen. Bitte versuchen Sie es erneut."})
		return
	}

	setSessionCookie(w, token)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "User logged in", applog.FieldUserID, user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.authSvc.RevokeSession(r.Context(), cookie.Value); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to revoke session", applog.FieldError, err)
		}
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
