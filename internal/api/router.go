package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bhbtrucksales/storefront/internal/apperr"
	"github.com/bhbtrucksales/storefront/internal/auth"
	"github.com/bhbtrucksales/storefront/internal/contact"
	"github.com/bhbtrucksales/storefront/internal/inventory"
	"github.com/bhbtrucksales/storefront/internal/telemetry"
	"github.com/bhbtrucksales/storefront/internal/uploads"
)

// Deps are the services behind the API.
type Deps struct {
	Inventory *inventory.Service
	Uploads   *uploads.Manager
	Gate      *auth.Gate
	Contact   *contact.Service
	Logger    *slog.Logger
	Metrics   *telemetry.Metrics // optional
	Version   string
}

// NewRouter creates a chi router with all API routes. It is meant to be
// mounted at /api.
func NewRouter(d Deps) chi.Router {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	th := NewTruckHandler(d.Inventory, d.Uploads, d.Logger)
	uh := NewUploadHandler(d.Uploads, d.Metrics)
	ah := NewAuthHandler(d.Gate, d.Metrics)
	ch := NewContactHandler(d.Contact, d.Metrics)
	requireAuth := RequireAuth(d.Gate)

	r := chi.NewRouter()
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/", index(d.Version))
	r.Get("/health", health)

	r.Route("/trucks", func(r chi.Router) {
		r.Use(AuditLog(d.Logger))

		r.Get("/", th.List)
		r.Get("/site-settings", th.GetSiteSettings)
		r.Get("/about-page", th.GetAboutPage)
		r.Get("/{id}", th.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", th.Create)
			r.Put("/site-settings", th.UpdateSiteSettings)
			r.Put("/about-page", th.UpdateAboutPage)
			r.Put("/{id}", th.Update)
			r.Delete("/{id}", th.Delete)
			r.Patch("/{id}/toggle", th.Toggle)
		})
	})

	r.Route("/uploads", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/truck-images/{truckId}", uh.UploadTruckImages)
		r.Get("/truck-images/{truckId}", uh.ListTruckImages)
		r.Delete("/truck-images/{truckId}", uh.DeleteTruckImages)
		r.Delete("/truck-images/{truckId}/{filename}", uh.DeleteTruckImage)
		r.Post("/general", uh.UploadGeneral)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", ah.Login)
		r.Post("/logout", ah.Logout)
		r.Get("/verify", ah.Verify)
	})

	r.Route("/contact", func(r chi.Router) {
		r.Post("/", ch.Submit)
		r.Get("/status", ch.Status)
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, map[string]string{"status": "OK"}, "BHB Truck Sales API is running")
}

func index(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeOK(w, http.StatusOK, map[string]any{
			"name":    "BHB Truck Sales API",
			"version": version,
			"endpoints": map[string]string{
				"trucks":   "/api/trucks",
				"settings": "/api/trucks/site-settings",
				"about":    "/api/trucks/about-page",
				"uploads":  "/api/uploads",
				"auth":     "/api/auth",
				"contact":  "/api/contact",
				"health":   "/api/health",
			},
		}, "")
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apperr.New(apperr.ErrNotFound, apperr.CodeNotFound, "API endpoint not found: "+r.Method+" "+r.URL.Path))
}
