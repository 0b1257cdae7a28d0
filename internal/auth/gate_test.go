package auth

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bhbtrucksales/storefront/internal/apperr"
	"github.com/bhbtrucksales/storefront/internal/testutil"
)

const password = "hunter2-but-longer"

func newTestGate(t *testing.T, delay time.Duration) (*Gate, *testutil.Clock, *bytes.Buffer) {
	t.Helper()
	clock := testutil.NewClock(testutil.Epoch)
	var logs bytes.Buffer
	g, err := NewGate(Config{
		AdminPassword: password,
		SessionSecret: "test-secret",
		TTL:           24 * time.Hour,
		FailureDelay:  delay,
	},
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))),
		WithBcryptCost(bcrypt.MinCost),
	)
	require.NoError(t, err)
	return g, clock, &logs
}

func TestNewGateRequiresSecrets(t *testing.T) {
	_, err := NewGate(Config{SessionSecret: "s"}, WithBcryptCost(bcrypt.MinCost))
	require.Error(t, err)
	_, err = NewGate(Config{AdminPassword: "p"}, WithBcryptCost(bcrypt.MinCost))
	require.Error(t, err)
}

func TestLoginVerifyLogout(t *testing.T) {
	g, _, logs := newTestGate(t, 0)

	s, err := g.Login(context.Background(), password, "curl/8")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, testutil.Epoch.Add(24*time.Hour), s.ExpiresAt)
	assert.Contains(t, logs.String(), `"outcome":"success"`)

	got, ok := g.Verify(s.Token)
	require.True(t, ok)
	assert.Equal(t, s.ID, got.ID)

	assert.True(t, g.Logout(s.Token, "curl/8"))
	_, ok = g.Verify(s.Token)
	assert.False(t, ok, "logout destroys the session immediately")
	assert.False(t, g.Logout(s.Token, "curl/8"))
}

func TestLoginFailure(t *testing.T) {
	const delay = 30 * time.Millisecond
	g, _, logs := newTestGate(t, delay)

	start := time.Now()
	_, err := g.Login(context.Background(), "wrong", "Mozilla/5.0")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.GreaterOrEqual(t, time.Since(start), delay)

	e, _ := apperr.As(err)
	assert.Equal(t, apperr.CodeBadCredentials, e.Code)
	assert.Contains(t, logs.String(), `"outcome":"failure"`)
	assert.Contains(t, logs.String(), `"user_agent":"Mozilla/5.0"`)

	_, err = g.Login(context.Background(), "", "Mozilla/5.0")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLoginFailureHonoursContext(t *testing.T) {
	g, _, _ := newTestGate(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Login(ctx, "wrong", "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestSessionExpiry(t *testing.T) {
	g, clock, _ := newTestGate(t, 0)

	s, err := g.Login(context.Background(), password, "")
	require.NoError(t, err)

	clock.Advance(23 * time.Hour)
	_, ok := g.Verify(s.Token)
	require.True(t, ok)

	clock.Advance(time.Hour)
	_, ok = g.Verify(s.Token)
	assert.False(t, ok)
}

func TestPrune(t *testing.T) {
	g, clock, _ := newTestGate(t, 0)
	_, err := g.Login(context.Background(), password, "")
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = g.Login(context.Background(), password, "")
	require.NoError(t, err)

	assert.Equal(t, 0, g.Prune(testutil.Epoch.Add(12*time.Hour)))
	assert.Equal(t, 1, g.Prune(testutil.Epoch.Add(24*time.Hour)))
	assert.Equal(t, 1, g.Prune(testutil.Epoch.Add(48*time.Hour)))
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	g, _, _ := newTestGate(t, 0)
	s, err := g.Login(context.Background(), password, "")
	require.NoError(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        s.ID,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	for _, tok := range []string{"", "garbage", forged} {
		_, ok := g.Verify(tok)
		assert.False(t, ok, tok)
	}
}

func TestCookieRoundTrip(t *testing.T) {
	g, _, _ := newTestGate(t, 0)
	s, err := g.Login(context.Background(), password, "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	g.SetCookie(rec, s)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	got, ok := g.FromRequest(req)
	require.True(t, ok)
	assert.Equal(t, s.ID, got.ID)

	_, ok = g.FromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}
