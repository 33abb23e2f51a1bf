package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/samaj-registry/registry-backend/v1/models"
	"github.com/samaj-registry/registry-backend/v1/services"
	"github.com/samaj-registry/registry-backend/v1/utils"
)

// RequestHandler serves the registration request endpoints. Submit is
// public; the rest are admin operations.
type RequestHandler struct {
	requests *services.RequestService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requests *services.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// Submit handles POST /api/v1/registrations
func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	request, err := h.requests.Submit(r.Context(), &req, actorFromRequest(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, request)
}

// List handles GET /api/v1/requests
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	response, err := h.requests.List(r.Context(), r.URL.Query().Get("status"), page, pageSize)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Get handles GET /api/v1/requests/{id}
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	request, err := h.requests.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, request)
}

// Approve handles POST /api/v1/requests/{id}/approve
func (h *RequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	member, err := h.requests.Approve(r.Context(), id, actorFromRequest(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, member)
}

// Reject handles POST /api/v1/requests/{id}/reject
func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req models.RejectRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	request, err := h.requests.Reject(r.Context(), id, req.Note, actorFromRequest(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, request)
}

// Delete handles DELETE /api/v1/requests/{id}
func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.requests.Delete(r.Context(), id, actorFromRequest(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
