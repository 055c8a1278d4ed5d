package handler

import (
	"net/http"

	"ebooking/internal/users/service"
	httputil "ebooking/pkg/http"
	"ebooking/pkg/logger"
	"ebooking/pkg/middleware"
	"ebooking/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// PublicPaths are where callers obtain a token, so they carry none.
var PublicPaths = []string{
	"/api/v1/auth/registration",
	"/api/v1/auth/login",
}

type UserHandler struct {
	service service.UserService
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

func (h *UserHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *UserHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.UserRegistration
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Register", err)
		return
	}

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Register", err)
		return
	}

	if err := httputil.WriteCreated(w, user); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "operation", "WriteCreated", "error", err)
	}
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Login", err)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}
	h.writeSuccess(w, "Login", resp)
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, err := middleware.RequirePrincipal(r.Context())
	if err != nil {
		h.writeError(w, "GetMe", err)
		return
	}

	user, err := h.service.GetMe(r.Context(), p)
	if err != nil {
		h.writeError(w, "GetMe", err)
		return
	}
	h.writeSuccess(w, "GetMe", user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, err := middleware.RequirePrincipal(r.Context())
	if err != nil {
		h.writeError(w, "UpdateMe", err)
		return
	}

	var update model.UserUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateMe", err)
		return
	}

	user, err := h.service.UpdateMe(r.Context(), p, &update)
	if err != nil {
		h.writeError(w, "UpdateMe", err)
		return
	}
	h.writeSuccess(w, "UpdateMe", user)
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, err := middleware.RequirePrincipal(r.Context())
	if err != nil {
		h.writeError(w, "UpdatePassword", err)
		return
	}

	var update model.PasswordUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdatePassword", err)
		return
	}

	msg, err := h.service.UpdatePassword(r.Context(), p, &update)
	if err != nil {
		h.writeError(w, "UpdatePassword", err)
		return
	}
	h.writeSuccess(w, "UpdatePassword", map[string]string{"message": msg})
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := middleware.RequireAdmin(r.Context()); err != nil {
		h.writeError(w, "UpdateRole", err)
		return
	}

	var update model.RoleUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateRole", err)
		return
	}

	user, err := h.service.UpdateRole(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "UpdateRole", err)
		return
	}
	h.writeSuccess(w, "UpdateRole", user)
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/auth/registration", h.Register)
	router.POST("/api/v1/auth/login", h.Login)
	router.GET("/api/v1/users/me", h.GetMe)
	router.PUT("/api/v1/users/me", h.UpdateMe)
	router.PUT("/api/v1/users/me/password", h.UpdatePassword)
	router.PUT("/api/v1/users/id/:id/role", h.UpdateRole)
}
