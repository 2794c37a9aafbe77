package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/outcome-engine-go/internal/store"
)

// Health statuses
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusDegraded  = "degraded"
	HealthStatusUnhealthy = "unhealthy"
)

// handleHealthCheck reports catalog, journal and registered dependencies
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := HealthStatusHealthy

	games := len(s.rounds.Catalog().Games())
	if games == 0 {
		checks["catalog"] = "no games loaded"
		status = HealthStatusDegraded
	} else {
		checks["catalog"] = HealthStatusHealthy
	}

	if _, err := s.rounds.List(ctx, store.RoundsQuery{PerPage: 1}); err != nil {
		checks["journal"] = err.Error()
		status = HealthStatusUnhealthy
	} else {
		checks["journal"] = HealthStatusHealthy
	}

	for name, p := range s.pingers {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			if status == HealthStatusHealthy {
				status = HealthStatusDegraded
			}
			continue
		}
		checks[name] = HealthStatusHealthy
	}

	code := http.StatusOK
	if status == HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	v := GetVersionInfo()
	writeJSON(w, code, HealthResponse{
		Status:        status,
		EngineVersion: v.EngineVersion,
		GitCommit:     v.GitCommit,
		Uptime:        time.Since(s.startTime).Round(time.Second).String(),
		Games:         games,
		Checks:        checks,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		RequestID:     middleware.GetReqID(r.Context()),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GetVersionInfo())
}
