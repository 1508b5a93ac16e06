package handler

import (
	"net/http"
	"strings"

	"go-ceremony-portal/internal/middleware"
	"go-ceremony-portal/internal/model"
	"go-ceremony-portal/internal/service"
)

type DiplomaHandler struct {
	service *service.DiplomaService
}

func NewDiplomaHandler(service *service.DiplomaService) *DiplomaHandler {
	return &DiplomaHandler{service: service}
}

func (h *DiplomaHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	diplomas, err := h.service.List(r.Context(), middleware.ScopeFromContext(r.Context()), model.DiplomaFilter{
		FacultyCode: strings.TrimSpace(query.Get("faculty_code")),
		StudentID:   strings.TrimSpace(query.Get("student_id")),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, diplomas, nil)
}

func (h *DiplomaHandler) ByStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	diplomas, err := h.service.ByStudent(r.Context(), middleware.ScopeFromContext(r.Context()), studentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, diplomas, nil)
}

// Mine lists the diplomas visible under the caller's profile scope; for a
// graduate that is exactly its own records.
func (h *DiplomaHandler) Mine(w http.ResponseWriter, r *http.Request) {
	diplomas, err := h.service.List(r.Context(), middleware.ScopeFromContext(r.Context()), model.DiplomaFilter{})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, diplomas, nil)
}

func (h *DiplomaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	diploma, err := h.service.Get(r.Context(), middleware.ScopeFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, diploma, nil)
}

func (h *DiplomaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateDiplomaRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	diploma, err := h.service.Create(r.Context(), middleware.ScopeFromContext(r.Context()), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, diploma, nil)
}

func (h *DiplomaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UpdateDiplomaRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	diploma, err := h.service.Update(r.Context(), middleware.ScopeFromContext(r.Context()), id, payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, diploma, nil)
}

func (h *DiplomaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), middleware.ScopeFromContext(r.Context()), id, actorFromRequest(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]int64{"deleted_id": id}, nil)
}
