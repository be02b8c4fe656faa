package uploads

import (
	"errors"

	uploadsvc "listinghub-backend/internal/application/uploads"
	"listinghub-backend/internal/middleware"
	"listinghub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *uploadsvc.Service
}

type uploadRequest struct {
	FileName string `json:"file_name"`
}

// ListingMedia POST /api/uploads/listing-media
func (h *Handlers) ListingMedia(c *fiber.Ctx) error {
	var req uploadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, uploadsvc.ErrFileNameRequired.Error(), nil)
	}
	res, err := h.Service.ListingMediaURL(c.UserContext(), req.FileName)
	if err != nil {
		if errors.Is(err, uploadsvc.ErrFileNameRequired) {
			return response.BadRequest(c, err.Error(), nil)
		}
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("bucket", uploadsvc.ListingMediaBucket).Msg("upload: failed to generate signed URL")
		return response.Error(c, "Failed to generate upload URL", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Upload URL generated", res, nil)
}
