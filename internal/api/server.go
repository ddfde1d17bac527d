package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/finreport/internal/report"
)

const requestIDHeader = "X-Request-ID"

// NewServer creates an HTTP server with all routes configured. Mutating routes require
// the admin key as a Bearer token when adminAPIKey is not empty.
func NewServer(port string, reports *report.Service, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(reports, adminAPIKey),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter returns the route table wrapped in request logging.
func NewRouter(reports *report.Service, adminAPIKey string) http.Handler {
	handler := NewHandler(reports)

	protect := func(h http.HandlerFunc) http.Handler {
		if adminAPIKey == "" {
			return h
		}
		return requireAuth(adminAPIKey, h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/reports", handler.ListReports)
	mux.HandleFunc("GET /api/v1/reports/{ticker}", handler.GetReport)
	mux.Handle("POST /api/v1/reports", protect(handler.PushReport))
	mux.Handle("POST /api/v1/reports/{ticker}/reports", protect(handler.AppendReport))
	mux.Handle("POST /api/v1/reports/{ticker}/rederive", protect(handler.RederiveReport))
	mux.Handle("DELETE /api/v1/reports/{ticker}", protect(handler.DeleteReport))

	// Routes of the first version of the service.
	mux.HandleFunc("GET /items", handler.ListReports)
	mux.Handle("POST /push_initial_report", protect(handler.PushReport))

	return withRequestID(mux)
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRequestID tags every request with an ID, taken from the incoming header when present,
// echoes it back and logs the completed request.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		slog.Info("http request",
			"requestId", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
