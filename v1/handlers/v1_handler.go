// Package handlers wires the registry's HTTP surface to its services.
package handlers

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/samaj-registry/registry-backend/v1/middleware"
	"github.com/samaj-registry/registry-backend/v1/services"
	"github.com/samaj-registry/registry-backend/v1/utils"
)

// V1Handler aggregates the per-resource handlers
type V1Handler struct {
	Members   *MemberHandler
	Zones     *ZoneHandler
	Requests  *RequestHandler
	Audit     *AuditHandler
	Dashboard *DashboardHandler
}

// Services bundles the service layer for handler construction
type Services struct {
	Members   *services.MemberService
	Zones     *services.ZoneService
	Requests  *services.RequestService
	Audit     *services.AuditService
	Query     *services.AuditQueryService
	Dashboard *services.DashboardService
	Cards     *services.CardService
}

// NewV1Handler creates the handler aggregate
func NewV1Handler(svcs Services) *V1Handler {
	return &V1Handler{
		Members:   NewMemberHandler(svcs.Members, svcs.Zones, svcs.Audit, svcs.Cards),
		Zones:     NewZoneHandler(svcs.Zones),
		Requests:  NewRequestHandler(svcs.Requests),
		Audit:     NewAuditHandler(svcs.Query, svcs.Members),
		Dashboard: NewDashboardHandler(svcs.Dashboard),
	}
}

// SetupPublicRoutes registers the routes that require no authentication
func (h *V1Handler) SetupPublicRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/registrations", h.Requests.Submit)
}

// SetupAdminRoutes registers the role-gated admin routes
func (h *V1Handler) SetupAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/members", h.Members.List)
	mux.HandleFunc("POST /api/v1/members", h.Members.Create)
	mux.HandleFunc("GET /api/v1/members/stickers", h.Members.Stickers)
	mux.HandleFunc("GET /api/v1/members/{id}", h.Members.Get)
	mux.HandleFunc("PUT /api/v1/members/{id}", h.Members.Update)
	mux.HandleFunc("DELETE /api/v1/members/{id}", h.Members.Delete)
	mux.HandleFunc("GET /api/v1/members/{id}/audit-logs", h.Members.AuditHistory)
	mux.HandleFunc("GET /api/v1/members/{id}/card", h.Members.IDCard)

	mux.HandleFunc("GET /api/v1/zones", h.Zones.List)
	mux.HandleFunc("POST /api/v1/zones", h.Zones.Create)
	mux.HandleFunc("GET /api/v1/zones/{id}", h.Zones.Get)
	mux.HandleFunc("PUT /api/v1/zones/{id}", h.Zones.Update)
	mux.HandleFunc("DELETE /api/v1/zones/{id}", h.Zones.Delete)

	mux.HandleFunc("GET /api/v1/requests", h.Requests.List)
	mux.HandleFunc("GET /api/v1/requests/{id}", h.Requests.Get)
	mux.HandleFunc("POST /api/v1/requests/{id}/approve", h.Requests.Approve)
	mux.HandleFunc("POST /api/v1/requests/{id}/reject", h.Requests.Reject)
	mux.HandleFunc("DELETE /api/v1/requests/{id}", h.Requests.Delete)

	mux.HandleFunc("GET /api/v1/audit-logs", h.Audit.List)
	mux.HandleFunc("GET /api/v1/audit-logs/export", h.Audit.Export)
	mux.HandleFunc("GET /api/v1/audit-logs/{entityType}/{entityId}", h.Audit.ByEntity)

	mux.HandleFunc("GET /api/v1/dashboard", h.Dashboard.Summary)
}

// actorFromRequest snapshots the authenticated principal and request
// provenance for the audit ledger. All fields are best-effort.
func actorFromRequest(r *http.Request) services.ActorContext {
	actor := services.ActorContext{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
	if principal, ok := middleware.PrincipalFrom(r.Context()); ok {
		actor.ID = principal.ID
		actor.Name = principal.Name
		actor.Email = principal.Email
	}
	return actor
}

// clientIP extracts the caller's address, preferring the forwarded header
// set by the reverse proxy
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// First address in the list is the origin client
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// respondServiceError maps service errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case services.IsValidationError(err):
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request", err)
	case services.IsNotFoundError(err):
		utils.RespondWithError(w, http.StatusNotFound, "Not found", err)
	case services.IsConflictError(err):
		utils.RespondWithError(w, http.StatusConflict, "Conflict", err)
	default:
		slog.Error("Request failed", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}
