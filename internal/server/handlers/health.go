package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"prospero-server/internal/shared/database"
	"prospero-server/internal/shared/response"
	"prospero-server/internal/universe"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	World     string `json:"world"`
}

type HealthHandler struct {
	db      *database.DB
	service *universe.Service
}

// NewHealthHandler accepts a nil db when persistence is disabled.
func NewHealthHandler(db *database.DB, service *universe.Service) *HealthHandler {
	return &HealthHandler{db: db, service: service}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = "connected"
		if err := h.db.PingContext(r.Context()); err != nil {
			dbStatus = "disconnected"
			logger.Warn("Database ping failed", "error", err)
		}
	}

	worldStatus := "pending"
	if _, err := h.service.Current(); err == nil {
		worldStatus = "ready"
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Database:  dbStatus,
		World:     worldStatus,
	}

	response.Success(w, http.StatusOK, resp)
}
