package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-doc-lifecycle/internal/model"
	"go-doc-lifecycle/internal/service"
	"go-doc-lifecycle/pkg/apierror"
)

type AuditHandler struct {
	audit     *service.AuditService
	lifecycle *service.LifecycleService
}

func NewAuditHandler(audit *service.AuditService, lifecycle *service.LifecycleService) *AuditHandler {
	return &AuditHandler{audit: audit, lifecycle: lifecycle}
}

// List is the admin search over the whole deletion audit trail.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	actor := actorFromRequest(r)

	organizationID := strings.TrimSpace(query.Get("organization_id"))
	if organizationID == "" {
		organizationID = actor.OrganizationID
	}
	if !canReadOrganization(actor, organizationID) {
		writeError(w, model.ErrForbidden)
		return
	}

	items, meta, err := h.audit.Query(r.Context(), model.AuditQuery{
		DocumentID:     strings.TrimSpace(query.Get("document_id")),
		OrganizationID: organizationID,
		PerformedBy:    strings.TrimSpace(query.Get("performed_by")),
		Action:         strings.ToUpper(strings.TrimSpace(query.Get("action"))),
		Status:         strings.ToUpper(strings.TrimSpace(query.Get("status"))),
		Page:           parseIntOrDefault(query.Get("page"), 1),
		Limit:          parseIntOrDefault(query.Get("limit"), 50),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.AuditListData{Items: items}, &meta)
}

func (h *AuditHandler) Organization(w http.ResponseWriter, r *http.Request) {
	organizationID := strings.TrimSpace(chi.URLParam(r, "id"))
	if organizationID == "" {
		writeError(w, apierror.Wrap(model.ErrInvalidInput, "BAD_REQUEST", "organization id is required", "id", http.StatusBadRequest))
		return
	}

	if !canReadOrganization(actorFromRequest(r), organizationID) {
		writeError(w, model.ErrForbidden)
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 100)

	items, err := h.lifecycle.GetOrganizationDeletionAudit(r.Context(), organizationID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.AuditListData{Items: items}, nil)
}
