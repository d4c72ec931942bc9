package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/nathanfredericks/instagrader/internal/dto"
	"github.com/nathanfredericks/instagrader/internal/middleware"
	"github.com/nathanfredericks/instagrader/internal/service"
	"github.com/nathanfredericks/instagrader/internal/utils"
)

// EssayHandler wires single-essay HTTP routes.
type EssayHandler struct {
	essays service.EssayService
	logger zerolog.Logger
}

// NewEssayHandler constructs the handler.
func NewEssayHandler(essays service.EssayService, logger zerolog.Logger) *EssayHandler {
	return &EssayHandler{
		essays: essays,
		logger: logger.With().Str("component", "essay_handler").Logger(),
	}
}

// Register attaches essay endpoints to the router group.
func (h *EssayHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
	router.Delete("/:id", h.delete)
	router.Post("/:id/retry", h.retry)
}

func (h *EssayHandler) get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, err.Error())
	}

	essay, err := h.essays.Get(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(dto.NewEssayResponse(essay))
}

func (h *EssayHandler) delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.essays.Delete(c.Context(), middleware.UserID(c), id); err != nil {
		return h.handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *EssayHandler) retry(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, err.Error())
	}

	essay, err := h.essays.Retry(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(dto.NewEssayResponse(essay))
}

func (h *EssayHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEssayNotFound):
		return utils.SendDetail(c, fiber.StatusNotFound, "essay not found")
	case errors.Is(err, service.ErrEssayNotRetryable):
		return utils.SendDetail(c, fiber.StatusConflict, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendDetail(c, fiber.StatusInternalServerError, "internal server error")
	}
}
