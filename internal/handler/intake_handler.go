package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/service"
	"github.com/gradeflow/gradeflow-api/internal/utils"
)

// IntakeHandler accepts new submissions posted by the originating queue.
type IntakeHandler struct {
	service service.IntakeService
	logger  zerolog.Logger
}

// NewIntakeHandler builds an intake handler instance.
func NewIntakeHandler(service service.IntakeService, logger zerolog.Logger) *IntakeHandler {
	return &IntakeHandler{
		service: service,
		logger:  logger.With().Str("component", "intake_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *IntakeHandler) Register(router fiber.Router) {
	router.Post("", h.create)
}

func (h *IntakeHandler) create(c *fiber.Ctx) error {
	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission accepted", result)
}

func (h *IntakeHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrControlFields):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
