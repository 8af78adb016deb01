package mw

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type configError struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Missing []string `json:"missing"`
	Hint    string   `json:"hint"`
}

// RequireCredentials answers 400 before any platform call is attempted when
// missing reports absent credential settings. The configuration is fixed at
// start-up, so the check is evaluated once.
func RequireCredentials(missing []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(missing) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slog.Warn("request rejected, credentials not configured",
				"request_id", middleware.GetReqID(r.Context()),
				"path", r.URL.Path,
				"missing", missing,
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(configError{
				Success: false,
				Error:   "missing configuration",
				Missing: missing,
				Hint:    "Set the missing variables in the environment or .env file and restart the service.",
			})
		})
	}
}
