package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/auth"
	"github.com/rl1809/storefront/internal/core/service"
)

const (
	HeaderRequestID = "X-Request-Id"

	// Both spellings are accepted for the idempotency key.
	HeaderIdempotencyKey       = "Idempotency-Key"
	HeaderLegacyIdempotencyKey = "X-Idempotency-Key"

	maxBodyBytes = 1 << 20
)

type HTTPHandler struct {
	schema *gql.Schema
	tokens *auth.TokenManager
	probes []Probe
	logger *zap.Logger
}

func NewHTTPHandler(schema *gql.Schema, tokens *auth.TokenManager, probes []Probe, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{schema: schema, tokens: tokens, probes: probes, logger: logger}
}

// Routes builds the public router: GraphQL on POST /graphql plus health
// endpoints.
func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Use(middleware.RequestSize(maxBodyBytes))
		r.Use(auth.Middleware(h.tokens, h.logger))
		r.Use(idempotencyKey)
		r.Method(http.MethodPost, "/graphql", &relay.Handler{Schema: h.schema})
	})
	return r
}

// HealthCheck is liveness only; it never touches dependencies.
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness probes storage and cache.
func (h *HTTPHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	results := checkAll(r.Context(), h.probes)

	status := http.StatusOK
	body := map[string]string{}
	for name, err := range results {
		if err != nil {
			status = http.StatusServiceUnavailable
			body[name] = "down"
			h.logger.Warn("readiness probe failed", zap.String("dependency", name), zap.Error(err))
			continue
		}
		body[name] = "up"
	}
	writeJSON(w, status, body)
}

func idempotencyKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(HeaderIdempotencyKey)
		if key == "" {
			key = r.Header.Get(HeaderLegacyIdempotencyKey)
		}
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(service.WithIdempotencyKey(r.Context(), key)))
	})
}

func (h *HTTPHandler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())
		w.Header().Set(HeaderRequestID, requestID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.logger.Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
