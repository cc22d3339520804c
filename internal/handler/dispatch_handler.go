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

// DispatchHandler hands waiting submissions to graders.
type DispatchHandler struct {
	service service.DispatchService
	logger  zerolog.Logger
}

// NewDispatchHandler builds a dispatch handler instance.
func NewDispatchHandler(service service.DispatchService, logger zerolog.Logger) *DispatchHandler {
	return &DispatchHandler{
		service: service,
		logger:  logger.With().Str("component", "dispatch_handler").Logger(),
	}
}

// Register attaches the routes to the provided router groups. The caller's
// role decides which queue they draw from; the groups only gate access.
func (h *DispatchHandler) Register(staff, peer, machine, self fiber.Router) {
	staff.Get("/next", h.claimNext)
	peer.Get("/next", h.claimNext)
	machine.Get("/next", h.claimNext)
	self.Get("/next", h.claimNext)
}

func (h *DispatchHandler) claimNext(c *fiber.Ctx) error {
	var req dto.ClaimRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}
	req.GraderClass = graderClassFromRole(userRoleFromContext(c))

	result, err := h.service.ClaimNext(c.Context(), req)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "claim processed", result)
}

func graderClassFromRole(role string) string {
	switch role {
	case "staff":
		return service.GraderClassStaff
	case "ml":
		return service.GraderClassMachine
	case "student":
		return service.GraderClassSelf
	default:
		return service.GraderClassPeer
	}
}

func (h *DispatchHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrConflict):
		return utils.SendError(c, fiber.StatusConflict, "submission was claimed by another grader")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
