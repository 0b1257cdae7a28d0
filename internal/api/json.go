package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bhbtrucksales/storefront/internal/apperr"
)

const maxJSONBody = 10 << 20

// envelope is the body of every /api response.
type envelope struct {
	Success    bool              `json:"success"`
	Data       any               `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
	Error      string            `json:"error,omitempty"`
	Code       string            `json:"code,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	RetryAfter int               `json:"retryAfter,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func writeOK(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// writeError maps err onto a status code and envelope. Errors outside the
// apperr taxonomy are logged and reported as SERVER_ERROR.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := envelope{Timestamp: time.Now().UTC()}

	var status int
	if e, ok := apperr.As(err); ok {
		status = statusFor(e.Kind)
		body.Error = e.Message
		body.Code = e.Code
		body.Details = e.Details
		if e.RetryAfter > 0 {
			secs := int(e.RetryAfter / time.Second)
			body.RetryAfter = secs
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
	} else {
		status = http.StatusInternalServerError
		body.Error = "Internal server error"
		body.Code = apperr.CodeServer
		if errors.Is(err, apperr.ErrDataCorruption) {
			body.Error = "Data file is unreadable"
			body.Code = apperr.CodeDataCorruption
		}
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	writeJSON(w, status, body)
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(kind, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, apperr.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(kind, apperr.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation(apperr.CodeValidation, fmt.Sprintf("Invalid JSON body: %v", err), nil)
	}
	return nil
}
