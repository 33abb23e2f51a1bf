package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/samaj-registry/registry-backend/v1/services"
	"github.com/samaj-registry/registry-backend/v1/utils"
)

// AuditHandler serves the audit ledger read endpoints
type AuditHandler struct {
	query   *services.AuditQueryService
	members *services.MemberService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(query *services.AuditQueryService, members *services.MemberService) *AuditHandler {
	return &AuditHandler{query: query, members: members}
}

// List handles GET /api/v1/audit-logs
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	params := queryParams(r)

	response, err := h.query.Query(r.Context(), params)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Export handles GET /api/v1/audit-logs/export
func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	params := queryParams(r)

	records, err := h.query.ExportAll(r.Context(), params)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	memberNames, err := h.members.DisplayNames(r.Context(), records)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("audit-log-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if err := services.WriteAuditCSV(w, records, memberNames); err != nil {
		// Headers already sent; nothing left to do but log
		slog.Error("Failed to stream audit CSV", "error", err)
	}
}

// ByEntity handles GET /api/v1/audit-logs/{entityType}/{entityId}
func (h *AuditHandler) ByEntity(w http.ResponseWriter, r *http.Request) {
	records, err := h.query.ByEntity(r.Context(), r.PathValue("entityType"), r.PathValue("entityId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, records)
}

func queryParams(r *http.Request) services.QueryParams {
	q := r.URL.Query()
	params := services.QueryParams{
		EntityType: q.Get("entityType"),
		Action:     q.Get("action"),
		ActorID:    q.Get("actorId"),
		From:       q.Get("from"),
		To:         q.Get("to"),
		Search:     q.Get("search"),
	}
	params.Page, params.PageSize = pageParams(r)
	return params
}
