package handler

import (
	"net/http"

	"go-ceremony-portal/internal/middleware"
	"go-ceremony-portal/internal/model"
)

func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{IP: middleware.ClientIP(r)}

	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return actor
	}

	actor.PrincipalID = principal.ID
	actor.Name = principal.Name
	actor.Role = principal.Role

	return actor
}
