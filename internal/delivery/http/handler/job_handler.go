package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/pkg/utils"
	"github.com/spatial-summarize/internal/usecase/dto"
)

// JobHandler - обработчик асинхронных задач
type JobHandler struct {
	jobUC  JobService
	logger *zap.Logger
}

// NewJobHandler - создание нового JobHandler
func NewJobHandler(jobUC JobService, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobUC:  jobUC,
		logger: logger,
	}
}

// Submit godoc
// @Summary Постановка задачи суммирования по сохраненным слоям
// @Description Задача обрабатывается воркером через Redis Streams; результат доступен через GET /jobs/{id}
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body dto.SubmitJobRequest true "Параметры задачи"
// @Success 202 {object} utils.SuccessResponse{data=dto.JobResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/jobs [post]
func (h *JobHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitJobRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, invalidBody(err))
	}

	job, err := h.jobUC.Submit(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Location("/api/v1/jobs/" + job.ID.String())
	return c.Status(fiber.StatusAccepted).JSON(utils.SuccessResponse{Data: job})
}

// Get godoc
// @Summary Состояние задачи
// @Tags Jobs
// @Produce json
// @Param id path string true "ID задачи"
// @Success 200 {object} utils.SuccessResponse{data=dto.JobResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/jobs/{id} [get]
func (h *JobHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	job, err := h.jobUC.Get(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, job, nil)
}
