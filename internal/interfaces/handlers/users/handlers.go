package users

import (
	"errors"
	"strconv"

	notifsvc "listinghub-backend/internal/application/notifications"
	usersvc "listinghub-backend/internal/application/users"
	"listinghub-backend/internal/middleware"
	"listinghub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service  *usersvc.Service
	Notifier *notifsvc.Service
}

func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usersvc.ErrMissingFields), errors.Is(err, usersvc.ErrInvalidEmail), errors.Is(err, usersvc.ErrTermsNotAccepted):
		return response.BadRequest(c, err.Error(), nil)
	case errors.Is(err, usersvc.ErrUserNotFound), errors.Is(err, notifsvc.ErrNotificationNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("users: request failed")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}

// GET /api/users/profile
func (h *Handlers) Profile(c *fiber.Ctx) error {
	view, err := h.Service.CheckProfile(c.UserContext(), middleware.GetPrincipal(c).UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Profile fetched successfully", view, nil)
}

type profileRequest struct {
	Email         string  `json:"email"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	PhoneNumber   *string `json:"phone_number"`
	TermsAccepted *bool   `json:"terms_accepted"`
}

// PUT /api/users/profile
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	u, err := h.Service.UpdateProfile(c.UserContext(), middleware.GetPrincipal(c).UserID, usersvc.UpdateProfileInput{
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		PhoneNumber:   req.PhoneNumber,
		TermsAccepted: req.TermsAccepted,
	})
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Profile updated successfully", fiber.Map{"user_id": u.UserID}, nil)
}

type syncRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// POST /api/users/sync
func (h *Handlers) Sync(c *fiber.Ctx) error {
	var req syncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body", nil)
		}
	}
	p := middleware.GetPrincipal(c)
	if req.Email == "" {
		req.Email = p.Email
	}
	u, err := h.Service.Sync(c.UserContext(), p.UserID, usersvc.SyncInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "User synced successfully", u, nil)
}

// GET /api/users/notifications
func (h *Handlers) Notifications(c *fiber.Ctx) error {
	rows, err := h.Notifier.List(c.UserContext(), middleware.GetPrincipal(c).UserID, c.QueryBool("unread_only", false))
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Notifications fetched successfully", rows, nil)
}

// PATCH /api/users/notifications/:id/read
func (h *Handlers) MarkRead(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid notification id", nil)
	}
	if err := h.Notifier.MarkRead(c.UserContext(), middleware.GetPrincipal(c).UserID, id); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Notification marked as read", fiber.Map{"notification_id": id}, nil)
}
