package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradeflow/gradeflow-api/internal/service"
	"github.com/gradeflow/gradeflow-api/internal/utils"
)

// ProgressHandler serves per-course grading progress and notification flags.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler builds a progress handler instance.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("/problems", h.problems)
	router.Get("/notifications", h.notifications)
}

func (h *ProgressHandler) problems(c *fiber.Ctx) error {
	courseID := strings.TrimSpace(c.Query("course_id"))
	if courseID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "course_id is required")
	}

	result, err := h.service.ProblemList(c.Context(), courseID)
	if err != nil {
		h.logger.Error().Err(err).Str("course_id", courseID).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "problems retrieved", result)
}

func (h *ProgressHandler) notifications(c *fiber.Ctx) error {
	courseID := strings.TrimSpace(c.Query("course_id"))
	if courseID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "course_id is required")
	}

	result, err := h.service.Notifications(c.Context(), courseID)
	if err != nil {
		h.logger.Error().Err(err).Str("course_id", courseID).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "notifications retrieved", result)
}
