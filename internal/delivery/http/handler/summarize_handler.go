package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/pkg/utils"
	"github.com/spatial-summarize/internal/usecase/dto"
)

// SummarizeHandler - обработчик синхронного суммирования
type SummarizeHandler struct {
	summarizeUC Summarizer
	logger      *zap.Logger
}

// NewSummarizeHandler - создание нового SummarizeHandler
func NewSummarizeHandler(summarizeUC Summarizer, logger *zap.Logger) *SummarizeHandler {
	return &SummarizeHandler{
		summarizeUC: summarizeUC,
		logger:      logger,
	}
}

// Summarize godoc
// @Summary Суммирование значений исходного слоя по зонам
// @Description Пересекает исходные полигоны с зонами, распределяет значения пропорционально площади пересечения в равновеликой проекции и агрегирует их по зонам (sum, mean, min, max). Слои передаются как GeoJSON или как ID сохраненных слоев.
// @Tags Summarize
// @Accept json
// @Produce json
// @Param statistic path string true "Статистика" Enums(sum, mean, min, max)
// @Param format query string false "geojson - вернуть только FeatureCollection"
// @Param request body dto.SummarizeRequest true "Зоны, исходный слой и параметры"
// @Success 200 {object} utils.SuccessResponse{data=dto.SummarizeResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 413 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/summarize/{statistic} [post]
func (h *SummarizeHandler) Summarize(c *fiber.Ctx) error {
	start := time.Now()

	var req dto.SummarizeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidBody(err))
	}
	req.Statistic = c.Params("statistic")

	resp, err := h.summarizeUC.Summarize(c.Context(), req)
	if err != nil {
		h.logger.Debug("Summarize failed",
			zap.String("statistic", req.Statistic),
			zap.Error(err))
		return utils.SendError(c, err)
	}

	if c.Query("format") == "geojson" {
		c.Set(fiber.HeaderContentType, geoJSONContentType)
		return c.Send(resp.Result)
	}

	return utils.SendSuccess(c, resp, &utils.Meta{
		Total:         resp.Meta.ZoneCount,
		TimeMSec:      float64(time.Since(start).Microseconds()) / 1000,
		FragmentCount: resp.Meta.FragmentCount,
		Cached:        resp.Meta.Cached,
	})
}
