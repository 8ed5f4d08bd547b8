package handler

import (
	"net/http"

	"sistemavendas/internal/apierror"
	"sistemavendas/internal/dto"
	"sistemavendas/internal/middleware"
	"sistemavendas/internal/service"

	"github.com/gin-gonic/gin"
)

type InventarioHandler struct{ svc service.InventarioService }

func NewInventarioHandler(svc service.InventarioService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

// Panel godoc
// @Summary      Panel de stock
// @Description  Cantidad, participación sobre el total y valor a costo por producto.
// @Tags         inventario
// @Security     BearerAuth
// @Success      200  {object} dto.PanelResponse
// @Router       /v1/inventario/panel [get]
func (h *InventarioHandler) Panel(c *gin.Context) {
	resp, err := h.svc.Panel(c.Request.Context(), middleware.GetEmpresaID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventarioHandler) ListarMovimientos(c *gin.Context) {
	var filter dto.MovimientoStockFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if !validateStruct(c, &filter) {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), middleware.GetEmpresaID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
