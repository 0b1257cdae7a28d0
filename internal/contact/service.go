// Package contact handles the public contact form: per-IP rate limiting,
// validation, and delivery of the inquiry to the business mailbox.
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bhbtrucksales/storefront/internal/apperr"
)

// Config holds delivery addresses.
type Config struct {
	BusinessEmail string
	FromEmail     string
	FromName      string
}

// Status is the contact form health report.
type Status struct {
	Status string `json:"status"`
	Email  struct {
		Configured bool   `json:"configured"`
		Provider   string `json:"provider"`
	} `json:"email"`
	RateLimit struct {
		WindowMs    int64 `json:"window"`
		MaxAttempts int   `json:"maxAttempts"`
	} `json:"rateLimit"`
}

// Service accepts contact form submissions.
type Service struct {
	cfg     Config
	limiter *RateLimiter
	mailer  Mailer
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService wires a contact service.
func NewService(cfg Config, limiter *RateLimiter, mailer Mailer, opts ...Option) *Service {
	if cfg.FromName == "" {
		cfg.FromName = "BHB Truck Sales Website"
	}
	s := &Service{
		cfg:     cfg,
		limiter: limiter,
		mailer:  mailer,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit rate limits by ip, validates f and delivers it. Rejected and invalid
// submissions still count against the limit.
func (s *Service) Submit(ctx context.Context, ip string, f Form) error {
	if err := s.Admit(ip); err != nil {
		return err
	}
	return s.Deliver(ctx, ip, f)
}

// Admit records a submission attempt from ip, failing with RATE_LIMITED once
// the window is full. Callers that parse the request body must admit first so
// unparseable submissions count too.
func (s *Service) Admit(ip string) error {
	if ok, retry := s.limiter.Allow(ip, s.now()); !ok {
		s.logger.Warn("contact: rate limited", slog.String("ip", ip))
		return apperr.RateLimited("Too many contact form submissions. Please wait 15 minutes before trying again.", ceilSeconds(retry))
	}
	return nil
}

// Deliver validates f and sends it to the business mailbox without touching
// the rate limiter.
func (s *Service) Deliver(ctx context.Context, ip string, f Form) error {
	now := s.now()
	f.Normalize()
	if err := f.Validate(); err != nil {
		return apperr.FromValidation(err)
	}
	if !f.HasContactMethod() {
		return apperr.Validation(apperr.CodeContactMethod, "Please provide either email address or phone number",
			map[string]string{"email_or_phone": "one of email or phone is required"})
	}
	if f.Subject == "" {
		f.Subject = DefaultSubject
	}

	text, html, err := render(f, now)
	if err != nil {
		return fmt.Errorf("contact: render email: %w", err)
	}
	msg := Message{
		To:          s.cfg.BusinessEmail,
		From:        s.cfg.FromEmail,
		FromName:    s.cfg.FromName,
		ReplyTo:     f.Email,
		ReplyToName: f.Name,
		Subject:     fmt.Sprintf("Website Inquiry: %s - %s", f.Subject, f.Name),
		Text:        text,
		HTML:        html,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("contact: deliver: %w", err)
	}
	s.logger.Info("contact: submission delivered",
		slog.String("ip", ip),
		slog.String("mailer", s.mailer.Name()),
	)
	return nil
}

// Status reports delivery configuration and the rate limit.
func (s *Service) Status() Status {
	var st Status
	st.Status = "Contact form is operational"
	st.Email.Configured = s.cfg.BusinessEmail != "" && s.mailer.Name() != "log"
	st.Email.Provider = s.mailer.Name()
	st.RateLimit.WindowMs = s.limiter.Window().Milliseconds()
	st.RateLimit.MaxAttempts = s.limiter.MaxAttempts()
	return st
}

func ceilSeconds(d time.Duration) time.Duration {
	if r := d % time.Second; r != 0 {
		d += time.Second - r
	}
	return d
}
