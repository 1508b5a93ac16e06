package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-ceremony-portal/internal/model"
	"go-ceremony-portal/internal/service"
	"go-ceremony-portal/pkg/apierror"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List serves GET /audit?action=&status=&actor_id=&since=&until=&page=&limit=.
// since and until are RFC 3339 timestamps.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	query := model.AuditQuery{
		Action: strings.TrimSpace(params.Get("action")),
		Status: strings.TrimSpace(params.Get("status")),
		Page:   parseIntOrDefault(params.Get("page"), 1),
		Limit:  parseIntOrDefault(params.Get("limit"), model.DefaultAuditLimit),
	}

	if raw := strings.TrimSpace(params.Get("actor_id")); raw != "" {
		actorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || actorID <= 0 {
			writeError(w, apierror.BadRequest("actor_id must be a positive integer", raw))
			return
		}
		query.ActorID = actorID
	}

	var err error
	if query.Since, err = parseTimeParam(params.Get("since")); err != nil {
		writeError(w, apierror.BadRequest("since must be an RFC 3339 timestamp", params.Get("since")))
		return
	}
	if query.Until, err = parseTimeParam(params.Get("until")); err != nil {
		writeError(w, apierror.BadRequest("until must be an RFC 3339 timestamp", params.Get("until")))
		return
	}
	if !query.Since.IsZero() && !query.Until.IsZero() && !query.Since.Before(query.Until) {
		writeError(w, apierror.BadRequest("since must be before until", ""))
		return
	}

	items, meta, err := h.service.Query(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.AuditListData{Items: items}, &meta)
}

func parseTimeParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
