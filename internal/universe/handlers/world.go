package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"prospero-server/internal/shared/errors"
	"prospero-server/internal/shared/response"
	"prospero-server/internal/universe"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	defaultNearest  = 5
	maxNearest      = 100

	maxGenerateBody = 4 << 10
)

type WorldHandler struct {
	service    *universe.Service
	defaults   universe.Params
	maxSystems uint64
	logger     *slog.Logger
}

// NewWorldHandler serves the current world. Regeneration requests start
// from defaults and may not ask for more than maxSystems systems.
func NewWorldHandler(service *universe.Service, defaults universe.Params, maxSystems uint64, logger *slog.Logger) *WorldHandler {
	return &WorldHandler{
		service:    service,
		defaults:   defaults,
		maxSystems: maxSystems,
		logger:     logger,
	}
}

// GetSummary handles GET /api/world
func (h *WorldHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "get_world_summary")

	summary, err := h.service.Summary()
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, summary)
}

// GetSnapshot handles GET /api/world/snapshot
func (h *WorldHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "get_world_snapshot")

	snapshot, err := h.service.Current()
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, snapshot)
}

// GetSchema handles GET /api/world/schema
func (h *WorldHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, universe.SnapshotSchema())
}

type systemsPage struct {
	Offset  int                    `json:"offset"`
	Limit   int                    `json:"limit"`
	Total   int                    `json:"total"`
	Systems []universe.SystemEntry `json:"systems"`
}

// ListSystems handles GET /api/world/systems?offset=&limit=
func (h *WorldHandler) ListSystems(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "list_systems")

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	limit = min(limit, maxPageSize)

	systems, total, err := h.service.Systems(offset, limit)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, systemsPage{
		Offset:  offset,
		Limit:   limit,
		Total:   total,
		Systems: systems,
	})
}

// GetSystem handles GET /api/world/systems/{index}
func (h *WorldHandler) GetSystem(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "get_system")

	index, err := pathIndex(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	entry, err := h.service.System(index)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, entry)
}

// GetNearest handles GET /api/world/systems/{index}/nearest?k=
func (h *WorldHandler) GetNearest(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "get_nearest")

	index, err := pathIndex(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	k, err := queryInt(r, "k", defaultNearest)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	neighbors, err := h.service.Nearest(index, min(k, maxNearest))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, neighbors)
}

// GetStar handles GET /api/world/stars/{index}
func (h *WorldHandler) GetStar(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "get_star")

	index, err := pathIndex(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	star, err := h.service.Star(index)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, star)
}

// GenerateRequest overrides individual generation parameters. Omitted
// fields keep the configured defaults.
type GenerateRequest struct {
	MapSeed         *uint32  `json:"map_seed"`
	NumberOfSystems *uint64  `json:"number_of_systems"`
	SystemSpread    *float64 `json:"system_spread"`
	StarsEnabled    *bool    `json:"stars_enabled"`
}

func (req GenerateRequest) apply(params universe.Params) universe.Params {
	if req.MapSeed != nil {
		params.MapSeed = *req.MapSeed
	}
	if req.NumberOfSystems != nil {
		params.NumberOfSystems = *req.NumberOfSystems
	}
	if req.SystemSpread != nil {
		params.SystemSpread = *req.SystemSpread
	}
	if req.StarsEnabled != nil {
		params.StarsEnabled = *req.StarsEnabled
	}
	return params
}

// Generate handles POST /api/world/generate - Admin only
func (h *WorldHandler) Generate(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "generate_world")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	// An empty body keeps every default.
	var req GenerateRequest
	body := http.MaxBytesReader(w, r.Body, maxGenerateBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil && err != io.EOF {
		clientMessage := "invalid request body"
		if _, ok := err.(*http.MaxBytesError); ok {
			clientMessage = fmt.Sprintf("request body must not exceed %d bytes", maxGenerateBody)
		}
		response.ErrorWithMessage(w, r, logger, errors.WrapValidation("invalid request body", err), clientMessage)
		return
	}

	params := req.apply(h.defaults)
	if params.NumberOfSystems > h.maxSystems {
		response.Error(w, r, logger, errors.Validationf("number_of_systems must not exceed %d", h.maxSystems))
		return
	}
	if err := params.Validate(); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid generation parameters", err))
		return
	}

	logger.Info("Regenerating world", "map_seed", params.MapSeed, "systems", params.NumberOfSystems)

	snapshot, err := h.service.Generate(r.Context(), params)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusCreated, snapshot.Summary)
}

func pathIndex(r *http.Request) (int, error) {
	raw := r.PathValue("index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Validationf("invalid index %q", raw)
	}
	return index, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.WrapValidation(fmt.Sprintf("invalid %s", name), err)
	}
	return v, nil
}
