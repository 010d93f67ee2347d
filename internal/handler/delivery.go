package handler

import (
	"net/http"

	"tiendapos/internal/dto"
	"tiendapos/internal/middleware"
	"tiendapos/internal/service"

	"github.com/gin-gonic/gin"
)

type DeliveryHandler struct {
	svc service.DeliveryService
}

func NewDeliveryHandler(svc service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{svc: svc}
}

func (h *DeliveryHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Direccion de entrega", resp)
}

// Upsert answers 201 the first time and 200 on later updates.
func (h *DeliveryHandler) Upsert(c *gin.Context) {
	var req dto.DeliveryAddressRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, created, err := h.svc.Upsert(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	if created {
		respond(c, http.StatusCreated, "Direccion creada", resp)
		return
	}
	respond(c, http.StatusOK, "Direccion actualizada", resp)
}

func (h *DeliveryHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.GetActor(c)); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Direccion eliminada", nil)
}
