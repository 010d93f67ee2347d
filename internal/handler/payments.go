package handler

import (
	"net/http"

	"tiendapos/internal/dto"
	"tiendapos/internal/middleware"
	"tiendapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type PaymentHandler struct {
	svc service.PaymentService
}

func NewPaymentHandler(svc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// GenerateQR godoc
// @Summary      Generar QR de pago
// @Description  Solicita el QR a la pasarela y guarda la transaccion como pendiente.
// @Tags         pagos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.GenerateQRRequest  true  "Monto y vigencia"
// @Success      201   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Failure      502   {object}  dto.Envelope
// @Router       /v1/payments/qr [post]
func (h *PaymentHandler) GenerateQR(c *gin.Context) {
	var req dto.GenerateQRRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GenerateQR(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "QR generado", resp)
}

func (h *PaymentHandler) Verify(c *gin.Context) {
	var req dto.VerifyPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	// validated as uuid above
	id := uuid.MustParse(req.PaymentID)
	resp, err := h.svc.Verify(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Estado del pago", resp)
}

func (h *PaymentHandler) List(c *gin.Context) {
	q, ok := listQuery(c)
	if !ok {
		return
	}
	items, count, err := h.svc.List(c.Request.Context(), middleware.GetActor(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "Pagos", items, count)
}

// Webhook receives the gateway's completion callback. Basic auth is enforced
// by middleware.WebhookBasicAuth.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req dto.WebhookRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Webhook(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	log.Info().Interface("movement_id", req.MovementID).Str("status", req.Status).Msg("payment webhook applied")
	respond(c, http.StatusOK, "Notificacion procesada", nil)
}
