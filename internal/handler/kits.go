package handler

import (
	"net/http"
	"strconv"

	"sistemavendas/internal/apierror"
	"sistemavendas/internal/dto"
	"sistemavendas/internal/middleware"
	"sistemavendas/internal/service"

	"github.com/gin-gonic/gin"
)

type KitsHandler struct{ svc service.KitService }

func NewKitsHandler(svc service.KitService) *KitsHandler {
	return &KitsHandler{svc: svc}
}

// Crear godoc
// @Summary      Crear kit
// @Description  Crea el kit y todos sus items en una sola transacción.
// @Tags         kits
// @Security     BearerAuth
// @Param        body  body     dto.CrearKitRequest  true  "Kit"
// @Success      201   {object} dto.ComposicionResponse
// @Failure      409   {object} apierror.APIError
// @Failure      422   {object} apierror.APIError
// @Router       /v1/kits [post]
func (h *KitsHandler) Crear(c *gin.Context) {
	var req dto.CrearKitRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), middleware.GetEmpresaID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar kits
// @Tags         kits
// @Security     BearerAuth
// @Success      200  {array}  dto.KitResumenResponse
// @Router       /v1/kits [get]
func (h *KitsHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context(), middleware.GetEmpresaID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerComposicion godoc
// @Summary      Composición de un kit
// @Description  Items resueltos, costo total y margen. Los items que no se pudieron resolver se listan en faltantes.
// @Tags         kits
// @Security     BearerAuth
// @Param        id   path     string  true  "UUID del kit"
// @Success      200  {object} dto.ComposicionResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/kits/{id} [get]
func (h *KitsHandler) ObtenerComposicion(c *gin.Context) {
	kitID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerComposicion(c.Request.Context(), middleware.GetEmpresaID(c), kitID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PrecioSugerido godoc
// @Summary      Precio sugerido
// @Description  costo_total × (1 + margen/100)
// @Tags         kits
// @Security     BearerAuth
// @Param        id      path     string  true  "UUID del kit"
// @Param        margen  query    number  true  "Margen objetivo en %"
// @Success      200     {object} dto.PrecioSugeridoResponse
// @Router       /v1/kits/{id}/precio-sugerido [get]
func (h *KitsHandler) PrecioSugerido(c *gin.Context) {
	kitID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.PrecioSugeridoRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("margen invalido"))
		return
	}
	resp, err := h.svc.PrecioSugerido(c.Request.Context(), middleware.GetEmpresaID(c), kitID, req.MargenPct)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RenombrarORepreciar godoc
// @Summary      Renombrar o cambiar el precio de un kit
// @Tags         kits
// @Security     BearerAuth
// @Param        id    path     string                    true  "UUID del kit"
// @Param        body  body     dto.ActualizarKitRequest  true  "Nombre y precio"
// @Success      200   {object} dto.ComposicionResponse
// @Router       /v1/kits/{id} [put]
func (h *KitsHandler) RenombrarORepreciar(c *gin.Context) {
	kitID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarKitRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RenombrarORepreciar(c.Request.Context(), middleware.GetEmpresaID(c), kitID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *KitsHandler) Eliminar(c *gin.Context) {
	kitID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), middleware.GetEmpresaID(c), kitID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *KitsHandler) AgregarItem(c *gin.Context) {
	kitID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ItemKitRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarItem(c.Request.Context(), middleware.GetEmpresaID(c), kitID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *KitsHandler) EditarItem(c *gin.Context) {
	kitID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramUUID(c, "item_id")
	if !ok {
		return
	}
	var req dto.ItemKitRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.EditarItem(c.Request.Context(), middleware.GetEmpresaID(c), kitID, itemID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *KitsHandler) QuitarItem(c *gin.Context) {
	kitID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramUUID(c, "item_id")
	if !ok {
		return
	}
	resp, err := h.svc.QuitarItem(c.Request.Context(), middleware.GetEmpresaID(c), kitID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HistorialPrecios godoc
// @Summary      Historial de precios de un kit
// @Description  Cambios de precio ordenados por fecha descendente.
// @Tags         kits
// @Security     BearerAuth
// @Param        id    path     string  true  "UUID del kit"
// @Param        page  query    int     false "Página (default 1)"
// @Param        limit query    int     false "Registros por página (default 20, max 100)"
// @Success      200   {object} dto.HistorialPrecioListResponse
// @Router       /v1/kits/{id}/historial-precios [get]
func (h *KitsHandler) HistorialPrecios(c *gin.Context) {
	kitID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	resp, err := h.svc.HistorialPrecios(c.Request.Context(), middleware.GetEmpresaID(c), kitID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
