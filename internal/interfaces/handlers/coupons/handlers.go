package coupons

import (
	"errors"
	"strconv"

	couponsvc "listinghub-backend/internal/application/coupons"
	"listinghub-backend/internal/middleware"
	"listinghub-backend/internal/pkg/response"
	"listinghub-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *couponsvc.Service
}

func statusFor(err error) int {
	var fe *validation.FieldErrors
	var state *couponsvc.StateError
	switch {
	case errors.As(err, &fe), errors.As(err, &state):
		return fiber.StatusBadRequest
	case errors.Is(err, couponsvc.ErrCouponNotFound), errors.Is(err, couponsvc.ErrListingNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, couponsvc.ErrForbidden), errors.Is(err, couponsvc.ErrListingForbidden), errors.Is(err, couponsvc.ErrAdminRequired):
		return fiber.StatusForbidden
	case errors.Is(err, couponsvc.ErrDuplicateCode),
		errors.Is(err, couponsvc.ErrInvalidDiscountType),
		errors.Is(err, couponsvc.ErrInvalidDiscountValue),
		errors.Is(err, couponsvc.ErrPercentageTooLarge),
		errors.Is(err, couponsvc.ErrInvalidDate),
		errors.Is(err, couponsvc.ErrDateOrder),
		errors.Is(err, couponsvc.ErrRejectionReasonRequired):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("coupons: request failed")
		return response.Error(c, "Internal Server Error", code, nil)
	}
	var fe *validation.FieldErrors
	if errors.As(err, &fe) {
		return response.BadRequest(c, fe.Error(), fe.Fields)
	}
	return response.Error(c, err.Error(), code, nil)
}

func couponID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

// POST /api/coupons
func (h *Handlers) Submit(c *fiber.Ctx) error {
	var in couponsvc.CouponInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	coupon, err := h.Service.Submit(c.UserContext(), middleware.GetPrincipal(c), in)
	if err != nil {
		return fail(c, err)
	}
	return response.SuccessCreated(c, "Coupon submitted for review", coupon, nil)
}

// PUT /api/coupons/:id
func (h *Handlers) Edit(c *fiber.Ctx) error {
	id, ok := couponID(c)
	if !ok {
		return response.BadRequest(c, "Invalid coupon id", nil)
	}
	var in couponsvc.CouponInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	coupon, err := h.Service.Edit(c.UserContext(), middleware.GetPrincipal(c), id, in)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Coupon updated and pending review", coupon, nil)
}

// GET /api/coupons/approved
func (h *Handlers) Approved(c *fiber.Ctx) error {
	rows, err := h.Service.Approved(c.UserContext(), c.Query("location"))
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Coupons fetched successfully", rows, nil)
}

// GET /api/coupons/has-pending
func (h *Handlers) HasPending(c *fiber.Ctx) error {
	s, err := h.Service.HasPending(c.UserContext(), middleware.GetPrincipal(c).UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Pending coupons checked", s, nil)
}

// GET /api/coupons/mine
func (h *Handlers) Mine(c *fiber.Ctx) error {
	rows, err := h.Service.Mine(c.UserContext(), middleware.GetPrincipal(c).UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Coupons fetched successfully", rows, nil)
}

// GET /api/coupons/pending
func (h *Handlers) Pending(c *fiber.Ctx) error {
	rows, err := h.Service.Pending(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Pending coupons fetched successfully", rows, nil)
}

func (h *Handlers) decision(c *fiber.Ctx, approve bool) error {
	id, ok := couponID(c)
	if !ok {
		return response.BadRequest(c, "Invalid coupon id", nil)
	}
	var in couponsvc.DecisionInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return response.BadRequest(c, "Invalid request body", nil)
		}
	}
	p := middleware.GetPrincipal(c)
	var (
		coupon interface{}
		err    error
		msg    string
	)
	if approve {
		coupon, err = h.Service.Approve(c.UserContext(), p, id, in)
		msg = "Coupon approved"
	} else {
		coupon, err = h.Service.Reject(c.UserContext(), p, id, in)
		msg = "Coupon rejected"
	}
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, msg, coupon, nil)
}

// PATCH /api/coupons/:id/approve
func (h *Handlers) Approve(c *fiber.Ctx) error {
	return h.decision(c, true)
}

// PATCH /api/coupons/:id/reject
func (h *Handlers) Reject(c *fiber.Ctx) error {
	return h.decision(c, false)
}
