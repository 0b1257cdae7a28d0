// Package auth implements the single-password admin session gate.
//
// A successful login creates a server-side session and hands the client an
// HS256-signed token naming it. A token is only honoured while its session
// exists, so logout takes effect immediately.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bhbtrucksales/storefront/internal/apperr"
)

// CookieName is the session cookie.
const CookieName = "bhb_session"

const subject = "admin"

var errInvalidToken = errors.New("auth: invalid session token")

// Session is an authenticated admin session.
type Session struct {
	ID        string
	Token     string
	LoginTime time.Time
	ExpiresAt time.Time
}

// Config holds the gate settings.
type Config struct {
	AdminPassword string
	SessionSecret string
	TTL           time.Duration
	FailureDelay  time.Duration
	// SecureCookie marks the cookie Secure (production).
	SecureCookie bool
}

// Gate decides whether a request is authenticated.
type Gate struct {
	hash         []byte
	secret       []byte
	ttl          time.Duration
	failureDelay time.Duration
	secure       bool
	now          func() time.Time
	logger       *slog.Logger

	mu       sync.Mutex
	sessions map[string]Session
}

// Option configures a Gate.
type Option func(*gateOptions)

type gateOptions struct {
	now    func() time.Time
	logger *slog.Logger
	cost   int
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *gateOptions) { o.now = now }
}

// WithLogger sets the logger for auth events.
func WithLogger(l *slog.Logger) Option {
	return func(o *gateOptions) { o.logger = l }
}

// WithBcryptCost sets the cost used to hash the admin password at startup.
func WithBcryptCost(cost int) Option {
	return func(o *gateOptions) { o.cost = cost }
}

// NewGate hashes the admin password and returns a gate with no sessions.
func NewGate(cfg Config, opts ...Option) (*Gate, error) {
	o := gateOptions{now: time.Now, logger: slog.Default(), cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.AdminPassword == "" {
		return nil, errors.New("auth: admin password is required")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("auth: session secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), o.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash admin password: %w", err)
	}
	return &Gate{
		hash:         hash,
		secret:       []byte(cfg.SessionSecret),
		ttl:          cfg.TTL,
		failureDelay: cfg.FailureDelay,
		secure:       cfg.SecureCookie,
		now:          o.now,
		logger:       o.logger,
		sessions:     make(map[string]Session),
	}, nil
}

// Login checks password and opens a session. A wrong password is answered
// only after the configured failure delay.
func (g *Gate) Login(ctx context.Context, password, userAgent string) (*Session, error) {
	if password == "" {
		g.logEvent("login", false, userAgent)
		return nil, apperr.Validation(apperr.CodeValidation, "Password is required",
			map[string]string{"password": "cannot be blank"})
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
		g.logEvent("login", false, userAgent)
		if g.failureDelay > 0 {
			t := time.NewTimer(g.failureDelay)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return nil, apperr.New(apperr.ErrUnauthorized, apperr.CodeBadCredentials, "Invalid password")
	}

	now := g.now()
	s := Session{
		ID:        uuid.NewString(),
		LoginTime: now,
		ExpiresAt: now.Add(g.ttl),
	}
	token, err := g.sign(s)
	if err != nil {
		return nil, err
	}
	s.Token = token

	g.mu.Lock()
	g.pruneLocked(now)
	g.sessions[s.ID] = s
	g.mu.Unlock()

	g.logEvent("login", true, userAgent)
	return &s, nil
}

// Verify returns the live session named by token.
func (g *Gate) Verify(token string) (*Session, bool) {
	id, err := g.parse(token)
	if err != nil {
		return nil, false
	}
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if !ok {
		return nil, false
	}
	if !now.Before(s.ExpiresAt) {
		delete(g.sessions, id)
		return nil, false
	}
	return &s, true
}

// Logout destroys the session named by token. It reports whether a live
// session was destroyed.
func (g *Gate) Logout(token, userAgent string) bool {
	s, ok := g.Verify(token)
	if !ok {
		return false
	}
	g.mu.Lock()
	delete(g.sessions, s.ID)
	g.mu.Unlock()
	g.logEvent("logout", true, userAgent)
	return true
}

// Prune drops sessions that expired at or before now.
func (g *Gate) Prune(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pruneLocked(now)
}

func (g *Gate) pruneLocked(now time.Time) int {
	n := 0
	for id, s := range g.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(g.sessions, id)
			n++
		}
	}
	return n
}

// FromRequest returns the live session carried by the request cookie.
func (g *Gate) FromRequest(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	return g.Verify(c.Value)
}

// SetCookie writes the session cookie.
func (g *Gate) SetCookie(w http.ResponseWriter, s *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(g.ttl / time.Second),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (g *Gate) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (g *Gate) sign(s Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        s.ID,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(s.LoginTime),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign session: %w", err)
	}
	return token, nil
}

func (g *Gate) parse(token string) (string, error) {
	if token == "" {
		return "", errInvalidToken
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || claims.ID == "" {
		return "", errInvalidToken
	}
	return claims.ID, nil
}

func (g *Gate) logEvent(action string, success bool, userAgent string) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	g.logger.Info("auth "+action,
		slog.String("outcome", outcome),
		slog.String("user_agent", userAgent),
	)
}
