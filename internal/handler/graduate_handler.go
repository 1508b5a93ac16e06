package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-ceremony-portal/internal/middleware"
	"go-ceremony-portal/internal/model"
	"go-ceremony-portal/internal/service"
	"go-ceremony-portal/pkg/apierror"
)

type GraduateHandler struct {
	service *service.GraduateService
}

func NewGraduateHandler(service *service.GraduateService) *GraduateHandler {
	return &GraduateHandler{service: service}
}

func (h *GraduateHandler) List(w http.ResponseWriter, r *http.Request) {
	graduates, err := h.service.List(r.Context(), middleware.ScopeFromContext(r.Context()),
		strings.TrimSpace(r.URL.Query().Get("faculty_code")))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, graduates, nil)
}

func (h *GraduateHandler) Get(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	graduate, err := h.service.Get(r.Context(), middleware.ScopeFromContext(r.Context()), studentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, graduate, nil)
}

func (h *GraduateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.GraduateRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	graduate, err := h.service.Create(r.Context(), middleware.ScopeFromContext(r.Context()), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, graduate, nil)
}

func (h *GraduateHandler) Update(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UpdateGraduateRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	graduate, err := h.service.Update(r.Context(), middleware.ScopeFromContext(r.Context()), studentID, payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, graduate, nil)
}

func (h *GraduateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	studentID, err := studentIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), middleware.ScopeFromContext(r.Context()), studentID, actorFromRequest(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"deleted_student_id": studentID}, nil)
}

func studentIDParam(r *http.Request) (string, error) {
	studentID := strings.TrimSpace(chi.URLParam(r, "student_id"))
	if studentID == "" {
		return "", apierror.BadRequest("student_id is required", "student_id")
	}
	return studentID, nil
}
