package api

import (
	"net/http"
	"time"

	"github.com/bhbtrucksales/storefront/internal/auth"
	"github.com/bhbtrucksales/storefront/internal/telemetry"
)

// AuthHandler serves the login, logout and verify routes.
type AuthHandler struct {
	gate    *auth.Gate
	metrics *telemetry.Metrics
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(gate *auth.Gate, metrics *telemetry.Metrics) *AuthHandler {
	return &AuthHandler{gate: gate, metrics: metrics}
}

// Login handles POST /api/auth/login.
//
//	@Summary	Open an admin session
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Success	200
//	@Failure	400
//	@Failure	401
//	@Router		/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.gate.Login(r.Context(), req.Password, r.UserAgent())
	h.metrics.ObserveLogin(err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.gate.SetCookie(w, s)
	writeOK(w, http.StatusOK, map[string]any{
		"loginTime": s.LoginTime,
		"expiresAt": s.ExpiresAt,
	}, "Login successful")
}

// Logout handles POST /api/auth/logout. It succeeds with or without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.CookieName); err == nil {
		h.gate.Logout(c.Value, r.UserAgent())
	}
	h.gate.ClearCookie(w)
	writeOK(w, http.StatusOK, nil, "Logout successful")
}

// Verify handles GET /api/auth/verify.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var loginTime *time.Time
	s, ok := h.gate.FromRequest(r)
	if ok {
		loginTime = &s.LoginTime
	}
	writeOK(w, http.StatusOK, map[string]any{
		"authenticated": ok,
		"loginTime":     loginTime,
	}, "")
}
