package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/samaj-registry/registry-backend/v1/models"
	"github.com/samaj-registry/registry-backend/v1/services"
	"github.com/samaj-registry/registry-backend/v1/utils"
)

// MemberHandler serves the member directory endpoints
type MemberHandler struct {
	members *services.MemberService
	zones   *services.ZoneService
	auditor *services.AuditService
	cards   *services.CardService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(members *services.MemberService, zones *services.ZoneService, auditor *services.AuditService, cards *services.CardService) *MemberHandler {
	return &MemberHandler{members: members, zones: zones, auditor: auditor, cards: cards}
}

// List handles GET /api/v1/members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := services.MemberFilters{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	}
	if zoneParam := r.URL.Query().Get("zoneId"); zoneParam != "" {
		zoneID, err := uuid.Parse(zoneParam)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid zoneId", err)
			return
		}
		filters.ZoneID = &zoneID
	}
	filters.Page, filters.PageSize = pageParams(r)

	response, err := h.members.List(r.Context(), filters)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Create handles POST /api/v1/members
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	member, err := h.members.Create(r.Context(), &req, actorFromRequest(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, member)
}

// Get handles GET /api/v1/members/{id}
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	member, err := h.members.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, member)
}

// Update handles PUT /api/v1/members/{id}
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req models.UpdateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	member, err := h.members.Update(r.Context(), id, &req, actorFromRequest(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, member)
}

// Delete handles DELETE /api/v1/members/{id}
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.members.Delete(r.Context(), id, actorFromRequest(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AuditHistory handles GET /api/v1/members/{id}/audit-logs
func (h *MemberHandler) AuditHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	// The member must exist even when its history is empty
	if _, err := h.members.Get(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	records, err := h.auditor.ListByMember(r.Context(), id.String())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, records)
}

// IDCard handles GET /api/v1/members/{id}/card
func (h *MemberHandler) IDCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	member, err := h.members.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	zoneName := ""
	if member.ZoneID != nil {
		zone, err := h.zones.Get(r.Context(), *member.ZoneID)
		if err == nil {
			zoneName = zone.Name
		}
	}

	pdf, err := h.cards.RenderIDCard(r.Context(), member, zoneName)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	servePDF(w, fmt.Sprintf("member-card-%d.pdf", member.MembershipNumber), pdf)
}

// Stickers handles GET /api/v1/members/stickers
func (h *MemberHandler) Stickers(w http.ResponseWriter, r *http.Request) {
	filters := services.MemberFilters{
		Status:   models.StatusActive,
		PageSize: stickerBatchLimit,
	}
	if zoneParam := r.URL.Query().Get("zoneId"); zoneParam != "" {
		zoneID, err := uuid.Parse(zoneParam)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid zoneId", err)
			return
		}
		filters.ZoneID = &zoneID
	}

	page, err := h.members.List(r.Context(), filters)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if len(page.Members) == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "No members matched the filter", nil)
		return
	}

	pdf, err := h.cards.RenderAddressStickers(r.Context(), page.Members)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	servePDF(w, "address-stickers.pdf", pdf)
}

// stickerBatchLimit caps a single sticker sheet render
const stickerBatchLimit = 500

func servePDF(w http.ResponseWriter, filename string, pdf []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// pathUUID parses a UUID path segment, responding 400 on failure
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads page and pageSize query parameters, leaving zero values
// for the service defaults
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	return page, pageSize
}
