package api

import (
	"net/http"

	"github.com/bhbtrucksales/storefront/internal/contact"
	"github.com/bhbtrucksales/storefront/internal/telemetry"
)

// ContactHandler serves the public contact form.
type ContactHandler struct {
	svc     *contact.Service
	metrics *telemetry.Metrics
}

// NewContactHandler creates a ContactHandler.
func NewContactHandler(svc *contact.Service, metrics *telemetry.Metrics) *ContactHandler {
	return &ContactHandler{svc: svc, metrics: metrics}
}

// Submit handles POST /api/contact.
// The attempt is counted before the body is read, so malformed bodies use up
// the same allowance as valid ones.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if err := h.svc.Admit(ip); err != nil {
		h.metrics.ObserveContact(err)
		writeError(w, r, err)
		return
	}
	var form contact.Form
	if err := decodeJSON(w, r, &form); err != nil {
		h.metrics.ObserveContact(err)
		writeError(w, r, err)
		return
	}
	err := h.svc.Deliver(r.Context(), ip, form)
	h.metrics.ObserveContact(err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nil, "Your message has been sent successfully. We'll get back to you within 24 hours.")
}

// Status handles GET /api/contact/status.
func (h *ContactHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, h.svc.Status(), "")
}
