package utils

import (
	stderrors "errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/spatial-summarize/internal/pkg/errors"
)

type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

type Meta struct {
	Total         int     `json:"total,omitempty"`
	Limit         int     `json:"limit,omitempty"`
	Offset        int     `json:"offset,omitempty"`
	TimeMSec      float64 `json:"time_ms,omitempty"`
	FragmentCount int     `json:"fragment_count,omitempty"`
	Cached        bool    `json:"cached,omitempty"`
}

func SendSuccess(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return c.JSON(SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

// SendCreated отвечает 201 с телом
func SendCreated(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(SuccessResponse{Data: data})
}

func SendError(c *fiber.Ctx, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return c.Status(appErr.StatusCode).JSON(ErrorResponse{
			Error: appErr,
		})
	}

	var validationErrs validator.ValidationErrors
	if stderrors.As(err, &validationErrs) {
		details := make(map[string]interface{}, len(validationErrs))
		for _, fe := range validationErrs {
			details[fe.Field()] = fe.Tag()
		}
		appErr = errors.ErrInvalidRequest.WithDetails(details)
		return c.Status(appErr.StatusCode).JSON(ErrorResponse{Error: appErr})
	}

	// Unknown error - return 500
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: errors.ErrInternalServer,
	})
}
