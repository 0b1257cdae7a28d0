package contact

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhbtrucksales/storefront/internal/apperr"
	"github.com/bhbtrucksales/storefront/internal/testutil"
)

type recordingMailer struct {
	sent []Message
	err  error
}

func (m *recordingMailer) Name() string { return "recording" }

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func validForm() Form {
	return Form{
		Name:    "Jane O'Neil",
		Email:   "  Jane@Example.COM ",
		Message: "Is the 49X still available?",
	}
}

func newTestService(t *testing.T) (*Service, *recordingMailer, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock(testutil.Epoch)
	mailer := &recordingMailer{}
	svc := NewService(Config{BusinessEmail: "sales@example.com", FromEmail: "web@example.com"},
		NewRateLimiter(DefaultWindow, DefaultMaxAttempts), mailer,
		WithClock(clock.Now), WithLogger(testutil.Logger()))
	return svc, mailer, clock
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(15*time.Minute, 3)
	t0 := testutil.Epoch

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("1.2.3.4", t0.Add(time.Duration(i)*time.Minute))
		require.True(t, ok)
	}
	ok, retry := l.Allow("1.2.3.4", t0.Add(5*time.Minute))
	assert.False(t, ok)
	assert.Equal(t, 10*time.Minute, retry)

	ok, _ = l.Allow("5.6.7.8", t0.Add(5*time.Minute))
	assert.True(t, ok, "limits are per IP")

	ok, _ = l.Allow("1.2.3.4", t0.Add(15*time.Minute))
	assert.True(t, ok, "the oldest attempt has left the window")
}

func TestRateLimiterPrune(t *testing.T) {
	l := NewRateLimiter(time.Minute, 3)
	l.Allow("a", testutil.Epoch)
	l.Allow("b", testutil.Epoch.Add(30*time.Second))

	assert.Equal(t, 0, l.Prune(testutil.Epoch.Add(59*time.Second)))
	assert.Equal(t, 1, l.Prune(testutil.Epoch.Add(time.Minute)))
	assert.Equal(t, 1, l.Prune(testutil.Epoch.Add(2*time.Minute)))
}

func TestSubmit(t *testing.T) {
	svc, mailer, _ := newTestService(t)

	require.NoError(t, svc.Submit(context.Background(), "1.2.3.4", validForm()))
	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "sales@example.com", msg.To)
	assert.Equal(t, "jane@example.com", msg.ReplyTo)
	assert.Equal(t, "Website Inquiry: General Inquiry - Jane O'Neil", msg.Subject)
	assert.Contains(t, msg.Text, "Is the 49X still available?")
	assert.Contains(t, msg.HTML, "Jane O&#39;Neil")
}

func TestSubmitPhoneOnly(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	f := validForm()
	f.Email = ""
	f.Phone = "+1 (555) 123-4567"
	f.Subject = "Financing"

	require.NoError(t, svc.Submit(context.Background(), "1.2.3.4", f))
	require.Len(t, mailer.sent, 1)
	assert.Empty(t, mailer.sent[0].ReplyTo)
	assert.Contains(t, mailer.sent[0].Text, "Phone: +1 (555) 123-4567")
	assert.NotContains(t, mailer.sent[0].Text, "Email:")
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Form)
		code   string
		field  string
	}{
		{"short name", func(f *Form) { f.Name = "J" }, apperr.CodeValidation, "name"},
		{"name digits", func(f *Form) { f.Name = "R2D2" }, apperr.CodeValidation, "name"},
		{"bad email", func(f *Form) { f.Email = "not-an-email" }, apperr.CodeValidation, "email"},
		{"bad phone", func(f *Form) { f.Phone = "12345" }, apperr.CodeValidation, "phone"},
		{"short message", func(f *Form) { f.Message = "hi" }, apperr.CodeValidation, "message"},
		{"long subject", func(f *Form) { f.Subject = strings.Repeat("s", 201) }, apperr.CodeValidation, "subject"},
		{"no contact method", func(f *Form) { f.Email = "" }, apperr.CodeContactMethod, "email_or_phone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mailer, _ := newTestService(t)
			f := validForm()
			tt.mutate(&f)
			err := svc.Submit(context.Background(), "1.2.3.4", f)
			require.ErrorIs(t, err, apperr.ErrValidation)
			e, _ := apperr.As(err)
			assert.Equal(t, tt.code, e.Code)
			assert.Contains(t, e.Details, tt.field)
			assert.Empty(t, mailer.sent)
		})
	}
}

func TestSubmitRateLimited(t *testing.T) {
	svc, mailer, clock := newTestService(t)
	ctx := context.Background()

	for i := 0; i < DefaultMaxAttempts; i++ {
		require.NoError(t, svc.Submit(ctx, "1.2.3.4", validForm()))
		clock.Advance(time.Second)
	}
	err := svc.Submit(ctx, "1.2.3.4", validForm())
	require.ErrorIs(t, err, apperr.ErrRateLimited)
	e, _ := apperr.As(err)
	assert.Equal(t, apperr.CodeRateLimited, e.Code)
	assert.Equal(t, 15*time.Minute-3*time.Second, e.RetryAfter)
	assert.Len(t, mailer.sent, DefaultMaxAttempts)
}

func TestAdmitCountsBeforeDelivery(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < DefaultMaxAttempts; i++ {
		require.NoError(t, svc.Admit("5.6.7.8"))
	}
	err := svc.Admit("5.6.7.8")
	require.ErrorIs(t, err, apperr.ErrRateLimited)
	assert.Empty(t, mailer.sent)

	// Deliver does not consult the limiter.
	require.NoError(t, svc.Deliver(ctx, "5.6.7.8", validForm()))
	assert.Len(t, mailer.sent, 1)
	require.NoError(t, svc.Admit("9.9.9.9"))
}

func TestSubmitMailerFailure(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	mailer.err = errors.New("smtp down")
	err := svc.Submit(context.Background(), "1.2.3.4", validForm())
	require.Error(t, err)
	_, ok := apperr.As(err)
	assert.False(t, ok, "delivery failures are internal errors")
}

func TestStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	st := svc.Status()
	assert.True(t, st.Email.Configured)
	assert.Equal(t, int64(15*60*1000), st.RateLimit.WindowMs)
	assert.Equal(t, 3, st.RateLimit.MaxAttempts)

	logOnly := NewService(Config{BusinessEmail: "x@example.com"}, NewRateLimiter(DefaultWindow, DefaultMaxAttempts), NewLogMailer(testutil.Logger()))
	assert.False(t, logOnly.Status().Email.Configured)
	assert.NoError(t, logOnly.Submit(context.Background(), "9.9.9.9", validForm()))
}
