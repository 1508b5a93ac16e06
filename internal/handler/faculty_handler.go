package handler

import (
	"net/http"

	"go-ceremony-portal/internal/model"
	"go-ceremony-portal/internal/service"
)

type FacultyHandler struct {
	service *service.FacultyService
}

func NewFacultyHandler(service *service.FacultyService) *FacultyHandler {
	return &FacultyHandler{service: service}
}

func (h *FacultyHandler) List(w http.ResponseWriter, r *http.Request) {
	faculties, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, faculties, nil)
}

func (h *FacultyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	faculty, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, faculty, nil)
}

func (h *FacultyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.FacultyRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	faculty, err := h.service.Create(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, faculty, nil)
}

func (h *FacultyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.FacultyRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	faculty, err := h.service.Update(r.Context(), id, payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, faculty, nil)
}

func (h *FacultyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id, actorFromRequest(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]int64{"deleted_id": id}, nil)
}
