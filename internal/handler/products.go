package handler

import (
	"net/http"
	"strconv"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"
	"tiendapos/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	svc   service.ProductService
	recos service.RecommendationService
}

func NewProductHandler(svc service.ProductService, recos service.RecommendationService) *ProductHandler {
	return &ProductHandler{svc: svc, recos: recos}
}

// Create godoc
// @Summary      Crear producto
// @Description  El stock inicial queda registrado como movimiento de inventario.
// @Tags         productos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateProductRequest  true  "Producto"
// @Success      201   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Router       /v1/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Producto creado", resp)
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Producto", resp)
}

// List godoc
// @Summary      Listar productos
// @Tags         productos
// @Produce      json
// @Security     BearerAuth
// @Param        attr    query     string  false  "Campo de filtro"
// @Param        value   query     string  false  "Valor de filtro"
// @Param        order   query     string  false  "campo, o -campo para orden descendente"
// @Param        limit   query     int     false  "Limite"
// @Param        offset  query     int     false  "Desplazamiento"
// @Success      200     {object}  dto.Envelope
// @Router       /v1/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	q, ok := listQuery(c)
	if !ok {
		return
	}
	items, count, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "Productos", items, count)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Producto actualizado", resp)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Producto eliminado", nil)
}

// Movements lists the product's stock ledger, newest first.
func (h *ProductHandler) Movements(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	q, ok := listQuery(c)
	if !ok {
		return
	}
	items, count, err := h.svc.Movements(c.Request.Context(), id, q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "Movimientos de inventario", items, count)
}

// CatalogCard godoc
// @Summary      Ficha publica de producto
// @Description  Precio con descuento aplicado. Respuesta cacheada en Redis.
// @Tags         catalogo
// @Produce      json
// @Param        id   path      string  true  "ID del producto"
// @Success      200  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Router       /v1/catalog/products/{id} [get]
func (h *ProductHandler) CatalogCard(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.CatalogCard(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Producto", resp)
}

func (h *ProductHandler) Recommendations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit := service.DefaultRecommendationLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 20 {
			respondError(c, apierror.Validation("", map[string]string{"limit": "debe estar entre 1 y 20"}))
			return
		}
		limit = n
	}
	resp, err := h.recos.Top(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Recomendaciones", resp)
}
