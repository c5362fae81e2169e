package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/eventlens/api/internal/artifact"
	"github.com/eventlens/api/internal/jobstore"
	"github.com/eventlens/api/internal/model"
	"github.com/eventlens/api/internal/photos"
	"github.com/eventlens/api/internal/service"
	"github.com/eventlens/api/pkg/response"
)

type ReelHandler struct {
	service   *service.ReelService
	validator *validator.Validate
}

func NewReelHandler(svc *service.ReelService, v *validator.Validate) *ReelHandler {
	return &ReelHandler{
		service:   svc,
		validator: v,
	}
}

// Submit handles POST /api/events/:eventId/reel
func (h *ReelHandler) Submit(c *fiber.Ctx) error {
	eventID := c.Params("eventId")
	if eventID == "" {
		return response.ValidationError(c, "Event ID is required", nil)
	}

	var req model.SubmitReelRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.ValidationError(c, "Invalid request body", nil)
		}
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.SubmitReel(c.Context(), eventID, req.RenderOptions)
	if err != nil {
		if errors.Is(err, photos.ErrEventNotFound) {
			return response.NotFound(c, "Event not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/events/:eventId/reel/status/:jobId
func (h *ReelHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.GetStatus(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobstore.ErrNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// List handles GET /api/events/:eventId/reels
func (h *ReelHandler) List(c *fiber.Ctx) error {
	eventID := c.Params("eventId")
	if eventID == "" {
		return response.ValidationError(c, "Event ID is required", nil)
	}

	result, err := h.service.ListReels(c.Context(), eventID)
	if err != nil {
		if errors.Is(err, photos.ErrEventNotFound) {
			return response.NotFound(c, "Event not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Delete handles DELETE /api/events/:eventId/reels/:filename
func (h *ReelHandler) Delete(c *fiber.Ctx) error {
	eventID := c.Params("eventId")
	filename := c.Params("filename")
	if eventID == "" || filename == "" {
		return response.ValidationError(c, "Event ID and filename are required", nil)
	}

	err := h.service.DeleteReel(c.Context(), eventID, filename)
	if err != nil {
		if errors.Is(err, photos.ErrEventNotFound) {
			return response.NotFound(c, "Event not found")
		}
		if errors.Is(err, artifact.ErrNotFound) {
			return response.NotFound(c, "Reel not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.NoContent(c)
}
