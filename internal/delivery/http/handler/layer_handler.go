package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/pkg/utils"
	"github.com/spatial-summarize/internal/usecase/dto"
)

// LayerHandler - обработчик сохраненных слоев
type LayerHandler struct {
	layerUC LayerService
	logger  *zap.Logger
}

// NewLayerHandler - создание нового LayerHandler
func NewLayerHandler(layerUC LayerService, logger *zap.Logger) *LayerHandler {
	return &LayerHandler{
		layerUC: layerUC,
		logger:  logger,
	}
}

// Create godoc
// @Summary Загрузка полигонального слоя
// @Tags Layers
// @Accept json
// @Produce json
// @Param request body dto.CreateLayerRequest true "Имя, CRS и FeatureCollection"
// @Success 201 {object} utils.SuccessResponse{data=domain.LayerInfo}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 413 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/layers [post]
func (h *LayerHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateLayerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidBody(err))
	}

	info, err := h.layerUC.Create(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendCreated(c, info)
}

// List godoc
// @Summary Список слоев
// @Tags Layers
// @Produce json
// @Param limit query int false "Размер страницы" default(100)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} utils.SuccessResponse{data=[]domain.LayerInfo}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/layers [get]
func (h *LayerHandler) List(c *fiber.Ctx) error {
	req := dto.ListLayersRequest{
		Limit:  c.QueryInt("limit", 100),
		Offset: c.QueryInt("offset", 0),
	}

	resp, err := h.layerUC.List(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, resp.Layers, &utils.Meta{
		Total:  resp.Total,
		Limit:  resp.Limit,
		Offset: resp.Offset,
	})
}

// Get godoc
// @Summary Метаданные слоя
// @Tags Layers
// @Produce json
// @Param id path string true "ID слоя"
// @Success 200 {object} utils.SuccessResponse{data=domain.LayerInfo}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/layers/{id} [get]
func (h *LayerHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	info, err := h.layerUC.GetInfo(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, info, nil)
}

// GeoJSON godoc
// @Summary Слой в формате GeoJSON
// @Tags Layers
// @Produce application/geo+json
// @Param id path string true "ID слоя"
// @Success 200 {object} map[string]interface{} "FeatureCollection"
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/layers/{id}/geojson [get]
func (h *LayerHandler) GeoJSON(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	data, err := h.layerUC.Export(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Set(fiber.HeaderContentType, geoJSONContentType)
	return c.Send(data)
}

// Delete godoc
// @Summary Удаление слоя
// @Tags Layers
// @Param id path string true "ID слоя"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/layers/{id} [delete]
func (h *LayerHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	if err := h.layerUC.Delete(c.Context(), id); err != nil {
		return utils.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
