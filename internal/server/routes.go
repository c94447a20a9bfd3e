package server

import (
	"log/slog"
	"net/http"

	"prospero-server/internal/auth"
	"prospero-server/internal/middleware"
	serverHandlers "prospero-server/internal/server/handlers"
	"prospero-server/internal/shared/database"
	"prospero-server/internal/universe"
	worldHandlers "prospero-server/internal/universe/handlers"
)

type Routes struct {
	db           *database.DB
	worldService *universe.Service
	worldHandler *worldHandlers.WorldHandler
	feed         *worldHandlers.Feed
	issuer       *auth.Issuer
	logger       *slog.Logger
}

// NewRoutes wires the HTTP surface. db and issuer may be nil when
// persistence or admin access is disabled.
func NewRoutes(db *database.DB, worldService *universe.Service, worldHandler *worldHandlers.WorldHandler, feed *worldHandlers.Feed, issuer *auth.Issuer, logger *slog.Logger) *Routes {
	return &Routes{
		db:           db,
		worldService: worldService,
		worldHandler: worldHandler,
		feed:         feed,
		issuer:       issuer,
		logger:       logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := slog.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.db, r.worldService)

	// Public endpoints
	mux.Handle("GET /api/server/health", healthHandler)
	mux.HandleFunc("GET /api/world", r.worldHandler.GetSummary)
	mux.HandleFunc("GET /api/world/snapshot", r.worldHandler.GetSnapshot)
	mux.HandleFunc("GET /api/world/schema", r.worldHandler.GetSchema)
	mux.HandleFunc("GET /api/world/systems", r.worldHandler.ListSystems)
	mux.HandleFunc("GET /api/world/systems/{index}", r.worldHandler.GetSystem)
	mux.HandleFunc("GET /api/world/systems/{index}/nearest", r.worldHandler.GetNearest)
	mux.HandleFunc("GET /api/world/stars/{index}", r.worldHandler.GetStar)
	mux.Handle("GET /api/world/stream", r.feed)

	// Admin-only endpoints (authenticated + admin role)
	mux.Handle("/api/world/generate", middleware.RequireAdmin(r.issuer, http.HandlerFunc(r.worldHandler.Generate)))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/api/world", "/api/world/snapshot", "/api/world/schema", "/api/world/systems", "/api/world/stars"},
		"stream_endpoints", []string{"/api/world/stream"},
		"admin_endpoints", []string{"/api/world/generate"},
		"admin_enabled", r.issuer != nil,
	)

	return mux
}
