package handler

import (
	"net/http"
	"strings"

	"go-doc-lifecycle/internal/middleware"
	"go-doc-lifecycle/internal/model"
	"go-doc-lifecycle/internal/util"
)

const maxUserAgentLength = 512

// actorFromRequest captures who is acting and from where for the audit trail.
func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{
		IP:        middleware.ClientIP(r),
		UserAgent: util.CleanText(r.UserAgent(), maxUserAgentLength),
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return actor
	}

	actor.UserID = claims.UserID
	actor.Username = claims.Username
	actor.Role = claims.Role
	actor.OrganizationID = claims.OrganizationID

	return actor
}

func isAdmin(actor model.AuditActor) bool {
	return strings.EqualFold(actor.Role, "admin")
}

// canReadOrganization reports whether an admin may read organizationID's
// audit trail. Admins whose token carries an organization are confined to it;
// admins without one operate across organizations.
func canReadOrganization(actor model.AuditActor, organizationID string) bool {
	return actor.OrganizationID == "" || actor.OrganizationID == organizationID
}
