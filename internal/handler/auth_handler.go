package handler

import (
	"net/http"
	"strings"
	"time"

	"go-ceremony-portal/internal/auth"
	"go-ceremony-portal/internal/middleware"
	"go-ceremony-portal/internal/model"
	"go-ceremony-portal/internal/service"
	"go-ceremony-portal/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// profileResponse is what /auth/me returns: the live principal, not the
// token claims.
type profileResponse struct {
	ID          int64             `json:"id"`
	Kind        auth.Kind         `json:"kind"`
	Username    string            `json:"username"`
	Role        model.Role        `json:"role"`
	FacultyCode string            `json:"faculty_code,omitempty"`
	StudentID   string            `json:"student_id,omitempty"`
	Permissions model.Permissions `json:"permissions"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
}

// LoginStaff writes the login body at top level rather than inside the
// data envelope; clients read token and user directly.
func (h *AuthHandler) LoginStaff(w http.ResponseWriter, r *http.Request) {
	var payload model.StaffLoginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	resp, err := h.service.LoginStaff(r.Context(), payload.Username, payload.Password, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) LoginGraduate(w http.ResponseWriter, r *http.Request) {
	var payload model.GraduateLoginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	studentID, secret := payload.Credentials()
	if strings.TrimSpace(studentID) == "" || strings.TrimSpace(secret) == "" {
		writeError(w, apierror.BadRequest("student_id and secret are required", "student_id"))
		return
	}

	resp, err := h.service.LoginGraduate(r.Context(), studentID, secret, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthenticated)
		return
	}

	if err := h.service.Logout(r.Context(), session, middleware.ClientIP(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"message": "logged out"}, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthenticated)
		return
	}

	p := session.Principal
	profile := profileResponse{
		ID:          p.ID,
		Kind:        p.Kind,
		Username:    p.Name,
		Role:        p.Role,
		FacultyCode: p.FacultyCode,
		StudentID:   p.StudentID,
		Permissions: p.Permissions,
	}
	if session.Claims != nil && session.Claims.ExpiresAt != nil {
		expiresAt := session.Claims.ExpiresAt.Time
		profile.ExpiresAt = &expiresAt
	}

	writeSuccess(w, http.StatusOK, profile, nil)
}
