package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/samaj-registry/registry-backend/v1/models"
	"github.com/samaj-registry/registry-backend/v1/services"
	"github.com/samaj-registry/registry-backend/v1/utils"
)

// ZoneHandler serves the zone management endpoints
type ZoneHandler struct {
	zones *services.ZoneService
}

// NewZoneHandler creates a new zone handler
func NewZoneHandler(zones *services.ZoneService) *ZoneHandler {
	return &ZoneHandler{zones: zones}
}

// List handles GET /api/v1/zones
func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	zones, err := h.zones.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, zones)
}

// Create handles POST /api/v1/zones
func (h *ZoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	zone, err := h.zones.Create(r.Context(), &req, actorFromRequest(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, zone)
}

// Get handles GET /api/v1/zones/{id}
func (h *ZoneHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	zone, err := h.zones.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, zone)
}

// Update handles PUT /api/v1/zones/{id}
func (h *ZoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req models.UpdateZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	zone, err := h.zones.Update(r.Context(), id, &req, actorFromRequest(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, zone)
}

// Delete handles DELETE /api/v1/zones/{id}
func (h *ZoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.zones.Delete(r.Context(), id, actorFromRequest(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
