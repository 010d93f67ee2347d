package handler

import (
	"net/http"

	"tiendapos/internal/dto"
	"tiendapos/internal/middleware"
	"tiendapos/internal/service"

	"github.com/gin-gonic/gin"
)

type CashRegisterHandler struct {
	svc service.CashRegisterService
}

func NewCashRegisterHandler(svc service.CashRegisterService) *CashRegisterHandler {
	return &CashRegisterHandler{svc: svc}
}

// Open godoc
// @Summary      Abrir caja
// @Description  Un usuario solo puede tener una caja abierta a la vez.
// @Tags         caja
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.OpenRegisterRequest  true  "Saldo inicial"
// @Success      201   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Router       /v1/cash-registers [post]
func (h *CashRegisterHandler) Open(c *gin.Context) {
	var req dto.OpenRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Caja abierta", resp)
}

// Close godoc
// @Summary      Cerrar caja
// @Tags         caja
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "ID de la caja"
// @Success      200  {object}  dto.Envelope
// @Failure      400  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Router       /v1/cash-registers/{id}/close [post]
func (h *CashRegisterHandler) Close(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Caja cerrada", resp)
}

// CloseCurrent closes the caller's open register.
func (h *CashRegisterHandler) CloseCurrent(c *gin.Context) {
	resp, err := h.svc.CloseCurrent(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Caja cerrada", resp)
}

func (h *CashRegisterHandler) Validate(c *gin.Context) {
	resp, err := h.svc.Validate(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Estado de caja", resp)
}

func (h *CashRegisterHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Caja", resp)
}

func (h *CashRegisterHandler) List(c *gin.Context) {
	q, ok := listQuery(c)
	if !ok {
		return
	}
	items, count, err := h.svc.List(c.Request.Context(), middleware.GetActor(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "Cajas", items, count)
}

func (h *CashRegisterHandler) UpdateInitialBalance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateInitialBalance(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Caja actualizada", resp)
}
