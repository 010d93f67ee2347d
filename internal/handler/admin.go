package handler

import (
	"net/http"

	"tiendapos/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	recos service.RecommendationService
}

func NewAdminHandler(recos service.RecommendationService) *AdminHandler {
	return &AdminHandler{recos: recos}
}

// RebuildRecommendations recomputes both recommendation tables on demand.
func (h *AdminHandler) RebuildRecommendations(c *gin.Context) {
	resp, err := h.recos.Rebuild(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Recomendaciones recalculadas", resp)
}
