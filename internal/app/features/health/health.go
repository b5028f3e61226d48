// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/setliststudio/internal/app/system/jsonutil"
	"github.com/dalemusser/setliststudio/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Probe statuses.
const (
	Healthy   = "Healthy"
	Degraded  = "Degraded"
	Unhealthy = "Unhealthy"
)

// Handler provides health check endpoints.
type Handler struct {
	mongoClient *mongo.Client
	schemaReady func() bool
	logger      *zap.Logger
}

// NewHandler creates a health Handler. schemaReady reports whether database
// schema setup has completed; nil means it always has.
func NewHandler(mongoClient *mongo.Client, schemaReady func() bool, logger *zap.Logger) *Handler {
	if schemaReady == nil {
		schemaReady = func() bool { return true }
	}
	return &Handler{
		mongoClient: mongoClient,
		schemaReady: schemaReady,
		logger:      logger,
	}
}

// Response is the body of every probe.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes serves /health (full check), /health/ready, /health/live and
// /health/simple.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	r.Get("/simple", h.Simple)
	return r
}

// MountRootEndpoints adds the probe aliases that live outside /health.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
	r.Get("/api/health/simple", h.Simple)
}

func (h *Handler) ping(ctx context.Context) error {
	if h.mongoClient == nil {
		return mongo.ErrClientDisconnected
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	return h.mongoClient.Ping(ctx, readpref.Primary())
}

// Check pings MongoDB and reports schema state. A pending schema degrades
// the status without failing the probe.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := Response{Status: Healthy, Services: map[string]string{}}

	if err := h.ping(r.Context()); err != nil {
		h.logger.Warn("health check: mongodb ping failed", zap.Error(err))
		resp.Status = Unhealthy
		resp.Services["mongodb"] = Unhealthy
	} else {
		resp.Services["mongodb"] = Healthy
	}

	if h.schemaReady() {
		resp.Services["schema"] = Healthy
	} else {
		resp.Services["schema"] = Degraded
		if resp.Status == Healthy {
			resp.Status = Degraded
		}
	}

	if resp.Status == Unhealthy {
		jsonutil.Unavailable(w, resp)
		return
	}
	jsonutil.OK(w, resp)
}

// Ready reports whether the service can take traffic (MongoDB reachable).
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		jsonutil.Unavailable(w, Response{Status: Unhealthy})
		return
	}
	jsonutil.OK(w, Response{Status: Healthy})
}

// Live reports that the process is up.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, Response{Status: Healthy})
}

// Simple is the dependency-free liveness probe.
func (h *Handler) Simple(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, Response{Status: Healthy})
}
