package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"printcheck/internal/config"
	"printcheck/internal/mw"
	"printcheck/internal/service"
)

type Services struct {
	Orders      *service.OrderService
	Prints      *service.PrintService
	Diagnostics *service.DiagnosticService
}

func NewRouter(cfg *config.Config, svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", HealthHandler())

	r.Route("/test-print", func(r chi.Router) {
		r.Get("/how-to-print", HowToPrintHandler())

		// Everything below talks to the platform.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireCredentials(cfg.Missing()))

			r.Post("/", TestPrintHandler(svc.Orders))
			r.Post("/send-print", SendPrintHandler(svc.Prints))
			r.Post("/debug-print", DebugPrintHandler(svc.Diagnostics))
			r.Get("/devices", ListDevicesHandler(svc.Prints))
			r.Get("/check", CheckHandler(svc.Orders, cfg.MerchantID, cfg.BaseURL))
			r.Get("/verify/{orderID}", VerifyOrderHandler(svc.Orders))
		})
	})

	return r
}

// NewServer leaves WriteTimeout unset: debug-print runtime grows with the
// device count and poll settings, and every response must reach the client.
// Outbound calls are bounded by the platform client's own timeout.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
