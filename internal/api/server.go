package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"artrack/pkg/logging"
	"artrack/pkg/version"
)

// NewServer creates and configures the HTTP server.
// shutdown is invoked asynchronously when a client requests a graceful shutdown.
func NewServer(addr string, sess *SessionHandler, traj *TrajectoryHandler, stats *StatsHandler, live *LiveHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health, version and log endpoints
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	// 2. Session lifecycle
	mux.HandleFunc("GET /api/session", sess.HandleStatus)
	mux.HandleFunc("POST /api/session/start", sess.HandleStart)
	mux.HandleFunc("POST /api/session/stop", sess.HandleStop)

	// 3. Trajectory queries
	mux.HandleFunc("GET /api/trajectory", traj.HandlePoints)
	mux.HandleFunc("GET /api/trajectory/summary", traj.HandleSummary)
	mux.HandleFunc("GET /api/trajectory/geojson", traj.HandleGeoJSON)
	if live != nil {
		mux.Handle("GET /api/trajectory/live", live)
	}

	// 4. Stats
	mux.Handle("GET /api/stats", stats)

	// 5. Shutdown
	if shutdown != nil {
		mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
			slog.Info("Graceful shutdown initiated via API")
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("Shutting down...")); err != nil {
				slog.Error("Failed to write shutdown response", "error", err)
			}
			// Let the response flush first
			go func() {
				time.Sleep(100 * time.Millisecond)
				shutdown()
			}()
		})
	}

	return &http.Server{
		Addr:        addr,
		Handler:     loggingMiddleware(mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the live endpoint holds its connection open.
		IdleTimeout: 60 * time.Second,
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": %q}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}

// writeJSON encodes v with the given status code. Encoding happens before the
// header is written so an unencodable value yields a 500 instead of an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// writeError sends a JSON error body.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
