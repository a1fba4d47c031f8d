package handlers

import (
	"encoding/json"
	"net/http"

	"phishguard-api/internal/infrastructure/cache"
	"phishguard-api/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health *HealthHandler
	Scan   *ScanHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Scanner URLScanner
	Scorer  ContentScorer
	Cache   *cache.RedisCache
	Logger  *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Cache, deps.Logger),
		Scan:   NewScanHandler(deps.Scanner, deps.Scorer, deps.Logger),
	}
}

// respondJSON writes v as a JSON response with the given status
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondDetail writes an error body in the {"detail": ...} shape the
// extension expects
func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
