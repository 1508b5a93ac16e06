package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-ceremony-portal/internal/auth"
	"go-ceremony-portal/internal/config"
	"go-ceremony-portal/internal/handler"
	"go-ceremony-portal/internal/middleware"
	"go-ceremony-portal/internal/observability"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Diploma  *handler.DiplomaHandler
	Graduate *handler.GraduateHandler
	Faculty  *handler.FacultyHandler
	Audit    *handler.AuditHandler
	Health   *handler.HealthHandler
}

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	metrics *observability.Metrics,
	h Handlers,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, "/health", "/metrics")
	loginLimit := middleware.LoginRateLimit(cfg.LoginRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(metrics.Middleware)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Health)
	r.Handle("/metrics", metrics.Handler())

	guard := authMiddleware.Require

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(a chi.Router) {
			a.With(loginLimit).Post("/login", h.Auth.LoginStaff)
			a.With(loginLimit).Post("/login/staff", h.Auth.LoginStaff)
			a.With(loginLimit).Post("/login/graduate", h.Auth.LoginGraduate)
			a.With(authMiddleware.RequireAuth).Post("/logout", h.Auth.Logout)
			a.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
		})

		api.Route("/users", func(u chi.Router) {
			u.With(guard(auth.ResourceUsers, auth.ActionRead)).Get("/", h.User.List)
			u.With(guard(auth.ResourceUsers, auth.ActionCreate)).Post("/", h.User.Create)
			u.With(guard(auth.ResourceUsers, auth.ActionRead)).Get("/{id}", h.User.Get)
			u.With(guard(auth.ResourceUsers, auth.ActionUpdate)).Patch("/{id}", h.User.Update)
			u.With(guard(auth.ResourceUsers, auth.ActionDelete)).Delete("/{id}", h.User.Delete)
		})

		api.Route("/diplomas", func(d chi.Router) {
			d.With(guard(auth.ResourceDiplomas, auth.ActionRead)).Get("/", h.Diploma.List)
			d.With(guard(auth.ResourceDiplomas, auth.ActionCreate)).Post("/", h.Diploma.Create)
			d.With(guard(auth.ResourceDiplomas, auth.ActionRead)).Get("/student/{student_id}", h.Diploma.ByStudent)
			d.With(guard(auth.ResourceDiplomas, auth.ActionRead)).Get("/{id}", h.Diploma.Get)
			d.With(guard(auth.ResourceDiplomas, auth.ActionUpdate)).Patch("/{id}", h.Diploma.Update)
			d.With(guard(auth.ResourceDiplomas, auth.ActionDelete)).Delete("/{id}", h.Diploma.Delete)
		})

		api.Route("/graduates", func(g chi.Router) {
			g.With(guard(auth.ResourceGraduates, auth.ActionRead)).Get("/", h.Graduate.List)
			g.With(guard(auth.ResourceGraduates, auth.ActionCreate)).Post("/", h.Graduate.Create)
			g.With(guard(auth.ResourceGraduates, auth.ActionRead)).Get("/{student_id}", h.Graduate.Get)
			g.With(guard(auth.ResourceGraduates, auth.ActionUpdate)).Patch("/{student_id}", h.Graduate.Update)
			g.With(guard(auth.ResourceGraduates, auth.ActionDelete)).Delete("/{student_id}", h.Graduate.Delete)
		})

		api.Route("/faculties", func(f chi.Router) {
			f.With(guard(auth.ResourceFaculties, auth.ActionRead)).Get("/", h.Faculty.List)
			f.With(guard(auth.ResourceFaculties, auth.ActionCreate)).Post("/", h.Faculty.Create)
			f.With(guard(auth.ResourceFaculties, auth.ActionRead)).Get("/{id}", h.Faculty.Get)
			f.With(guard(auth.ResourceFaculties, auth.ActionUpdate)).Patch("/{id}", h.Faculty.Update)
			f.With(guard(auth.ResourceFaculties, auth.ActionDelete)).Delete("/{id}", h.Faculty.Delete)
		})

		api.With(guard(auth.ResourceProfile, auth.ActionRead)).Get("/me/diplomas", h.Diploma.Mine)
		api.With(guard(auth.ResourceAudit, auth.ActionRead)).Get("/audit", h.Audit.List)
	})

	return r
}
