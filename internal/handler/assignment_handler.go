package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nathanfredericks/instagrader/internal/dto"
	"github.com/nathanfredericks/instagrader/internal/middleware"
	"github.com/nathanfredericks/instagrader/internal/service"
	"github.com/nathanfredericks/instagrader/internal/utils"
)

// AssignmentHandler wires assignment HTTP routes.
type AssignmentHandler struct {
	assignments service.AssignmentService
	uploads     service.UploadService
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(assignments service.AssignmentService, uploads service.UploadService, validator *validator.Validate, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignments: assignments,
		uploads:     uploads,
		validator:   validator,
		logger:      logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to the router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Get("/:id/essays", h.listEssays)
	router.Post("/:id/upload", h.uploadEssays)
	router.Get("/:id/progress", h.progress)
	router.Get("/:id/export/csv", h.exportCSV)
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	summaries, err := h.assignments.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return c.JSON(dto.NewAssignmentListResponseSlice(summaries))
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.assignments.Create(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.NewAssignmentResponse(assignment))
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.assignments.Get(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(dto.NewAssignmentResponse(assignment))
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssignmentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.assignments.Update(c.Context(), middleware.UserID(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(dto.NewAssignmentResponse(assignment))
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.assignments.Delete(c.Context(), middleware.UserID(c), id); err != nil {
		return h.handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AssignmentHandler) listEssays(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, err.Error())
	}

	essays, err := h.assignments.ListEssays(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(dto.NewEssayListResponseSlice(essays))
}

func (h *AssignmentHandler) uploadEssays(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, err.Error())
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, "no files provided")
	}

	created, err := h.uploads.Upload(c.Context(), middleware.UserID(c), id, form.File["files"])
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.NewEssayListResponseSlice(created))
}

func (h *AssignmentHandler) progress(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, err.Error())
	}

	progress, err := h.assignments.Progress(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(progress)
}

func (h *AssignmentHandler) exportCSV(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendDetail(c, fiber.StatusBadRequest, err.Error())
	}

	payload, err := h.assignments.ExportCSV(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "essays-"+id.String()+".csv"))
	return c.Send(payload)
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationError *service.UploadValidationError
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendDetail(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrRubricNotFound):
		return utils.SendDetail(c, fiber.StatusNotFound, "rubric not found")
	case errors.As(err, &validationError):
		return utils.SendDetail(c, fiber.StatusBadRequest, validationError.Message)
	default:
		return h.internalError(c, err)
	}
}

func (h *AssignmentHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendDetail(c, fiber.StatusInternalServerError, "internal server error")
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	value, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, errors.New("invalid identifier")
	}
	return value, nil
}
