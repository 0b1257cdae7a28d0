package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bhbtrucksales/storefront/internal/apperr"
	"github.com/bhbtrucksales/storefront/internal/checksum"
	"github.com/bhbtrucksales/storefront/internal/inventory"
	"github.com/bhbtrucksales/storefront/internal/uploads"
)

// TruckHandler serves the inventory, site settings and about page routes.
type TruckHandler struct {
	inv     *inventory.Service
	uploads *uploads.Manager
	logger  *slog.Logger
}

// NewTruckHandler creates a TruckHandler.
func NewTruckHandler(inv *inventory.Service, up *uploads.Manager, logger *slog.Logger) *TruckHandler {
	return &TruckHandler{inv: inv, uploads: up, logger: logger}
}

// List handles GET /api/trucks.
//
//	@Summary	List active trucks
//	@Tags		trucks
//	@Produce	json
//	@Param		available	query	string	false	"Only available trucks when true"
//	@Param		featured	query	string	false	"Only featured trucks when true"
//	@Param		condition	query	string	false	"Condition, case-insensitive"
//	@Param		make		query	string	false	"Make substring, case-insensitive"
//	@Param		year		query	int		false	"Model year"
//	@Router		/trucks [get]
func (h *TruckHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := inventory.Filter{
		Available: q.Get("available") == "true",
		Featured:  q.Get("featured") == "true",
		Condition: strings.TrimSpace(q.Get("condition")),
		Make:      strings.TrimSpace(q.Get("make")),
	}
	if y := strings.TrimSpace(q.Get("year")); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, r, apperr.Validation(apperr.CodeValidation, "Year must be a valid number",
				map[string]string{"year": "must be an integer"}))
			return
		}
		f.Year = year
	}

	list, err := h.inv.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	etag := checksum.ETag(list.Checksum, r.URL.RawQuery)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if checksum.Match(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeOK(w, http.StatusOK, list, "")
}

// Get handles GET /api/trucks/{id}.
func (h *TruckHandler) Get(w http.ResponseWriter, r *http.Request) {
	truck, err := h.inv.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, truck, "")
}

// Create handles POST /api/trucks.
//
//	@Summary	Create a truck listing
//	@Tags		trucks
//	@Accept		json
//	@Produce	json
//	@Success	201
//	@Failure	400
//	@Failure	401
//	@Failure	409
//	@Router		/trucks [post]
func (h *TruckHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in inventory.CreateTruckInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	truck, err := h.inv.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, truck, "Truck created successfully")
}

// Update handles PUT /api/trucks/{id}.
func (h *TruckHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in inventory.UpdateTruckInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	truck, err := h.inv.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, truck, "Truck updated successfully")
}

// Delete handles DELETE /api/trucks/{id}. The truck's image directory is
// removed after the record; a failure there is logged, not returned.
func (h *TruckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := h.inv.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.uploads.DeleteTruck(deleted.ID); err != nil {
		h.logger.Warn("delete truck images failed", slog.String("id", deleted.ID), slog.String("error", err.Error()))
	}
	writeOK(w, http.StatusOK, map[string]any{"deletedTruck": deleted}, "Truck deleted successfully")
}

// Toggle handles PATCH /api/trucks/{id}/toggle.
func (h *TruckHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.inv.Toggle(r.Context(), chi.URLParam(r, "id"), req.Field)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, res, "Truck "+req.Field+" toggled successfully")
}

// GetSiteSettings handles GET /api/trucks/site-settings.
func (h *TruckHandler) GetSiteSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.inv.SiteSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, settings, "")
}

// UpdateSiteSettings handles PUT /api/trucks/site-settings.
func (h *TruckHandler) UpdateSiteSettings(w http.ResponseWriter, r *http.Request) {
	var in inventory.SiteSettingsInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	settings, err := h.inv.UpdateSiteSettings(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, settings, "Site settings updated successfully")
}

// GetAboutPage handles GET /api/trucks/about-page.
func (h *TruckHandler) GetAboutPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.inv.AboutPage(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, page, "")
}

// UpdateAboutPage handles PUT /api/trucks/about-page.
func (h *TruckHandler) UpdateAboutPage(w http.ResponseWriter, r *http.Request) {
	var in inventory.AboutPageInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.inv.UpdateAboutPage(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, page, "About page updated successfully")
}
