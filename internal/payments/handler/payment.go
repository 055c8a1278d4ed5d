package handler

import (
	"net/http"

	"ebooking/internal/payments/service"
	apperrors "ebooking/pkg/errors"
	httputil "ebooking/pkg/http"
	"ebooking/pkg/logger"
	"ebooking/pkg/middleware"
	"ebooking/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// PublicPaths are reached by checkout redirects and carry no token.
var PublicPaths = []string{
	"/api/v1/payments/success",
	"/api/v1/payments/cancel",
}

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

func (h *PaymentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, err := middleware.RequirePrincipal(r.Context())
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var req model.PaymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	payment, err := h.service.CreateSession(r.Context(), p, req.BookingID)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, payment); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, err := middleware.RequirePrincipal(r.Context())
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	payments, total, err := h.service.ListMine(r.Context(), p, limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, payments, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *PaymentHandler) ListAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, err := middleware.RequireAdmin(r.Context()); err != nil {
		h.writeError(w, "ListAll", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}

	payments, total, err := h.service.ListAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}

	if err := httputil.WritePaginated(w, payments, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *PaymentHandler) Success(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		h.writeError(w, "Success", apperrors.InvalidInput("session_id is required"))
		return
	}

	payment, err := h.service.Success(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, "Success", err)
		return
	}

	if err := httputil.WriteSuccess(w, payment); err != nil {
		h.log.Error("failed to write success response", "handler", "Success", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		h.writeError(w, "Cancel", apperrors.InvalidInput("session_id is required"))
		return
	}

	booking, err := h.service.Cancel(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) Renew(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, err := middleware.RequirePrincipal(r.Context())
	if err != nil {
		h.writeError(w, "Renew", err)
		return
	}

	payment, err := h.service.Renew(r.Context(), p, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Renew", err)
		return
	}

	if err := httputil.WriteCreated(w, payment); err != nil {
		h.log.Error("failed to write created response", "handler", "Renew", "operation", "WriteCreated", "error", err)
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/payments", h.Create)
	router.GET("/api/v1/payments", h.ListAll)
	router.GET("/api/v1/payments/my", h.ListMine)
	router.GET("/api/v1/payments/success", h.Success)
	router.GET("/api/v1/payments/cancel", h.Cancel)
	router.POST("/api/v1/payments/id/:id/renew", h.Renew)
}
