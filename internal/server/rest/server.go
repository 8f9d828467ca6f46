// Package restserver exposes the session lifecycle flows over HTTP.
package restserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/markmcclatchy/auth-service/internal/errs"
	"github.com/markmcclatchy/auth-service/internal/service"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "jwt"

// Response copy. InitiateResetMessage is identical for known and unknown
// emails.
const (
	signupMessage        = "User created successfully"
	twoFARequiredMessage = "2FA required"
	InitiateResetMessage = "If the email exists, a password reset link has been sent."
	resetDoneMessage     = "Password has been reset successfully."
)

// Server wires the auth service into HTTP handlers.
type Server struct {
	auth      service.AuthService
	cookieTTL time.Duration
	log       *zap.Logger
}

// New constructs a Server. cookieTTL bounds the session cookie lifetime and
// should match the auth token TTL.
func New(auth service.AuthService, cookieTTL time.Duration, log *zap.Logger) *Server {
	return &Server{auth: auth, cookieTTL: cookieTTL, log: log}
}

// Handler builds the route table wrapped in recovery and logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /verify-2fa", s.handleVerifyTwoFactor)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("POST /verify-token", s.handleVerifyToken)
	mux.HandleFunc("POST /initiate-password-reset", s.handleInitiatePasswordReset)
	mux.HandleFunc("POST /reset-password", s.handleResetPassword)
	return s.recoverPanics(s.logRequests(mux))
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Requires2FA bool   `json:"requires2FA"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyTwoFactorRequest struct {
	Email          string `json:"email"`
	LoginAttemptID string `json:"loginAttemptId"`
	TwoFACode      string `json:"2FACode"`
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

type initiateResetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type twoFAResponse struct {
	Message        string `json:"message"`
	LoginAttemptID string `json:"loginAttemptId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.auth.Signup(r.Context(), req.Email, req.Password, req.Requires2FA); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, messageResponse{Message: signupMessage})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.TwoFactorRequired {
		s.writeJSON(w, http.StatusPartialContent, twoFAResponse{
			Message:        twoFARequiredMessage,
			LoginAttemptID: res.AttemptID.Expose(),
		})
		return
	}
	s.setSessionCookie(w, res.Token)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleVerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req verifyTwoFactorRequest
	if !s.decode(w, r, &req) {
		return
	}
	signed, err := s.auth.VerifyTwoFactor(r.Context(), req.Email, req.LoginAttemptID, req.TwoFACode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, signed)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var tokenString string
	if c, err := r.Cookie(SessionCookieName); err == nil {
		tokenString = c.Value
	}
	if err := s.auth.Logout(r.Context(), tokenString); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyTokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	if _, err := s.auth.VerifyToken(r.Context(), req.Token); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleInitiatePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req initiateResetRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.auth.InitiatePasswordReset(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: InitiateResetMessage})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	signed, err := s.auth.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, signed)
	s.writeJSON(w, http.StatusOK, messageResponse{Message: resetDoneMessage})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeError maps flow errors to status codes. Unexpected errors are logged
// with their causal chain and surface only a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, errs.ErrMissingToken):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing auth token"})
	case errors.Is(err, errs.ErrInvalidCredentials):
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid credentials"})
	case errors.Is(err, errs.ErrInvalidToken), errors.Is(err, errs.ErrBannedToken):
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid auth token"})
	case errors.Is(err, errs.ErrAlreadyExists):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: "User already exists"})
	case errors.Is(err, errs.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "User not found"})
	default:
		s.log.Error("unexpected flow error",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "An unexpected error occurred"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}
