package handler

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"go-doc-lifecycle/internal/erasure"
	"go-doc-lifecycle/internal/model"
	"go-doc-lifecycle/internal/service"
	"go-doc-lifecycle/internal/util"
	"go-doc-lifecycle/pkg/apierror"
)

const maxReasonLength = 1000

type DocumentHandler struct {
	lifecycle *service.LifecycleService
}

func NewDocumentHandler(lifecycle *service.LifecycleService) *DocumentHandler {
	return &DocumentHandler{lifecycle: lifecycle}
}

func (h *DocumentHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(r)
	if actor.UserID == "" {
		writeError(w, model.ErrUnauthorized)
		return
	}

	organizationID := strings.TrimSpace(r.URL.Query().Get("organization_id"))

	docs, err := h.lifecycle.GetTrash(r.Context(), actor.UserID, organizationID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.TrashListData{Items: docs}, nil)
}

func (h *DocumentHandler) Trash(w http.ResponseWriter, r *http.Request) {
	documentID, ok := documentIDParam(w, r)
	if !ok {
		return
	}

	var payload model.TrashRequest
	if err := decodeOptionalJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if utf8.RuneCountInString(payload.Reason) > maxReasonLength {
		writeError(w, apierror.Wrap(model.ErrInvalidInput, "BAD_REQUEST", "reason is too long", "max 1000 characters", http.StatusBadRequest))
		return
	}
	reason := util.CleanText(payload.Reason, maxReasonLength)

	actor := actorFromRequest(r)
	actor.Reason = reason

	doc, err := h.lifecycle.MoveToTrash(r.Context(), documentID, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, doc, nil)
}

func (h *DocumentHandler) Restore(w http.ResponseWriter, r *http.Request) {
	documentID, ok := documentIDParam(w, r)
	if !ok {
		return
	}

	doc, err := h.lifecycle.RestoreFromTrash(r.Context(), documentID, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, doc, nil)
}

func (h *DocumentHandler) PermanentDelete(w http.ResponseWriter, r *http.Request) {
	documentID, ok := documentIDParam(w, r)
	if !ok {
		return
	}

	opts, err := overwriteOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.lifecycle.PermanentDelete(r.Context(), documentID, actorFromRequest(r), opts); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.PermanentDeleteResponse{DocumentID: documentID, Erased: true}, nil)
}

func (h *DocumentHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	opts, err := overwriteOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	deleted, err := h.lifecycle.EmptyTrash(r.Context(), actorFromRequest(r), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.EmptyTrashResponse{DeletedCount: deleted}, nil)
}

// DeletionHistory lists a document's audit trail. Admins see the entries of
// the organizations they may read; other users see the entries they performed.
func (h *DocumentHandler) DeletionHistory(w http.ResponseWriter, r *http.Request) {
	documentID, ok := documentIDParam(w, r)
	if !ok {
		return
	}

	entries, err := h.lifecycle.GetDocumentDeletionHistory(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}

	actor := actorFromRequest(r)
	visible := make([]model.AuditEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.PerformedBy == actor.UserID || (isAdmin(actor) && canReadOrganization(actor, entry.OrganizationID)) {
			visible = append(visible, entry)
		}
	}
	entries = visible

	writeSuccess(w, http.StatusOK, model.AuditListData{Items: entries}, nil)
}

func documentIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	documentID := strings.TrimSpace(chi.URLParam(r, "id"))
	if documentID == "" {
		writeError(w, apierror.Wrap(model.ErrInvalidInput, "BAD_REQUEST", "document id is required", "id", http.StatusBadRequest))
		return "", false
	}

	return documentID, true
}

func overwriteOptions(r *http.Request) (erasure.Options, error) {
	var payload model.PermanentDeleteRequest
	if err := decodeOptionalJSON(r, &payload); err != nil {
		return erasure.Options{}, err
	}

	return erasure.Options{
		Method: erasure.Method(strings.TrimSpace(payload.Method)),
		Passes: payload.Passes,
	}, nil
}
