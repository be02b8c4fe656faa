package categories

import (
	"errors"

	catsvc "listinghub-backend/internal/application/categories"
	"listinghub-backend/internal/middleware"
	"listinghub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *catsvc.Service
}

// GET /api/categories
func (h *Handlers) List(c *fiber.Ctx) error {
	rows, err := h.Service.List(c.UserContext(), c.Query("type"))
	if err != nil {
		if errors.Is(err, catsvc.ErrInvalidType) {
			return response.BadRequest(c, err.Error(), nil)
		}
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("categories: list failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Categories fetched successfully", rows, nil)
}

type createRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// POST /api/categories
func (h *Handlers) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	cat, err := h.Service.Create(c.UserContext(), req.Name, req.Type)
	if err != nil {
		if errors.Is(err, catsvc.ErrNameRequired) || errors.Is(err, catsvc.ErrInvalidType) {
			return response.BadRequest(c, err.Error(), nil)
		}
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("categories: create failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.SuccessCreated(c, "Category created successfully", cat, nil)
}
