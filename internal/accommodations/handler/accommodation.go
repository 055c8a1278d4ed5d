package handler

import (
	"net/http"

	"ebooking/internal/accommodations/service"
	httputil "ebooking/pkg/http"
	"ebooking/pkg/logger"
	"ebooking/pkg/middleware"
	"ebooking/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AccommodationHandler struct {
	service service.AccommodationService
	log     *logger.Logger
}

func NewAccommodationHandler(service service.AccommodationService, log *logger.Logger) *AccommodationHandler {
	return &AccommodationHandler{
		service: service,
		log:     log,
	}
}

func (h *AccommodationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AccommodationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, err := middleware.RequireAdmin(r.Context()); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var acc model.Accommodation
	if err := httputil.DecodeJSON(r, &acc); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &acc); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, acc); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *AccommodationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	acc, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, acc); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AccommodationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	accommodations, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, accommodations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *AccommodationHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := middleware.RequireAdmin(r.Context()); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	var update model.AccommodationUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	acc, err := h.service.Update(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, acc); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AccommodationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := middleware.RequireAdmin(r.Context()); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AccommodationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/accommodations", h.Create)
	router.GET("/api/v1/accommodations", h.GetAll)
	router.GET("/api/v1/accommodations/id/:id", h.GetByID)
	router.PATCH("/api/v1/accommodations/id/:id", h.Update)
	router.DELETE("/api/v1/accommodations/id/:id", h.Delete)
}
