package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/xavierca1/rwa-leads/internal/infra/database"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type BrokerStatus interface {
	Healthy() bool
}

type SchemaProber interface {
	Probe(ctx context.Context, columns ...string) (database.ProbeOutcome, error)
}

type HealthHandler struct {
	DB        Pinger
	Broker    BrokerStatus
	Schema    SchemaProber
	Version   string
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

// NewHealthHandler accepts a nil broker when notifications are disabled.
func NewHealthHandler(db Pinger, broker BrokerStatus, schema SchemaProber, version string) *HealthHandler {
	return &HealthHandler{
		DB:        db,
		Broker:    broker,
		Schema:    schema,
		Version:   version,
		StartTime: time.Now(),
	}
}

const (
	stateHealthy       = "healthy"
	stateNotConfigured = "not configured"
)

// Handle reports 503 when any configured dependency is unusable. An absent
// broker is not a failure: notifications are optional.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]string{
		"database": stateHealthy,
		"rabbitmq": stateNotConfigured,
	}
	if err := h.DB.PingContext(ctx); err != nil {
		deps["database"] = fmt.Sprintf("unhealthy: %v", err)
	}
	if h.Schema != nil {
		deps["schema"] = schemaState(h.Schema.Probe(ctx))
	}
	if h.Broker != nil {
		deps["rabbitmq"] = stateHealthy
		if !h.Broker.Healthy() {
			deps["rabbitmq"] = "unhealthy: connection closed"
		}
	}

	resp := HealthResponse{
		Status:       stateHealthy,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	}
	code := http.StatusOK
	for _, v := range deps {
		if v != stateHealthy && v != stateNotConfigured {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, code, resp)
}

func schemaState(outcome database.ProbeOutcome, err error) string {
	switch outcome {
	case database.ProbeOK:
		return stateHealthy
	case database.ProbeSchemaIncompatible:
		return "degraded: schema older than code"
	default:
		return fmt.Sprintf("unhealthy: %v", err)
	}
}
