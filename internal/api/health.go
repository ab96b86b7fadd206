package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const readinessProbeTimeout = 1 * time.Second

type HealthHandler struct {
	pingPostgres func(ctx context.Context) error
	pingRedis    func(ctx context.Context) error
	env          string
	version      string
}

func NewHealthHandler(pgPool *pgxpool.Pool, rdb *redis.Client, env, version string) *HealthHandler {
	return &HealthHandler{
		pingPostgres: pgPool.Ping,
		pingRedis: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
		env:     env,
		version: version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	resp := LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	}
	writeJSON(w, http.StatusOK, resp)
}

// Readiness reports postgres down as an error but redis down only as
// degraded: reads and writes keep working without the cache. The two
// dependencies are probed concurrently, each against its own timeout, so
// one hung backend cannot eat the other's budget.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	probe := func(ping func(ctx context.Context) error) error {
		ctx, cancel := context.WithTimeout(r.Context(), readinessProbeTimeout)
		defer cancel()
		return ping(ctx)
	}

	var pgErr, redisErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		pgErr = probe(h.pingPostgres)
	}()
	go func() {
		defer wg.Done()
		redisErr = probe(h.pingRedis)
	}()
	wg.Wait()

	deps := make(map[string]string)
	status := "ok"

	if pgErr != nil {
		deps["postgres"] = "down"
		status = "error"
	} else {
		deps["postgres"] = "ok"
	}

	if redisErr != nil {
		deps["redis"] = "down"
		if status == "ok" {
			status = "degraded"
		}
	} else {
		deps["redis"] = "ok"
	}

	resp := ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, resp)
}
