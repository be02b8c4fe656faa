package listings

import (
	"errors"
	"strconv"

	listsvc "listinghub-backend/internal/application/listings"
	"listinghub-backend/internal/middleware"
	"listinghub-backend/internal/pkg/response"
	"listinghub-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *listsvc.Service
}

// fail maps service errors to the error envelope. Unknown errors are logged and hidden.
func fail(c *fiber.Ctx, err error) error {
	var fe *validation.FieldErrors
	var refs *listsvc.InvalidRefsError
	var state *listsvc.StateError
	switch {
	case errors.As(err, &fe):
		return response.BadRequest(c, fe.Error(), fe.Fields)
	case errors.As(err, &refs):
		return response.BadRequest(c, refs.Error(), fiber.Map{"ids": refs.IDs})
	case errors.As(err, &state):
		return response.BadRequest(c, state.Error(), nil)
	case errors.Is(err, listsvc.ErrListingNotFound), errors.Is(err, listsvc.ErrFavoriteNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, listsvc.ErrForbidden), errors.Is(err, listsvc.ErrAdminRequired):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, listsvc.ErrInvalidCategory),
		errors.Is(err, listsvc.ErrInvalidMedia),
		errors.Is(err, listsvc.ErrVendorIDsNotAllowed),
		errors.Is(err, listsvc.ErrActivityIDsNotAllowed),
		errors.Is(err, listsvc.ErrInvalidDecision),
		errors.Is(err, listsvc.ErrRejectionReasonRequired),
		errors.Is(err, listsvc.ErrInvalidDate),
		errors.Is(err, listsvc.ErrInvalidType):
		return response.BadRequest(c, err.Error(), nil)
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("listings: request failed")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}

func listingID(c *fiber.Ctx, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	return id, err == nil && id > 0
}

// POST /api/listings
func (h *Handlers) Submit(c *fiber.Ctx) error {
	var in listsvc.ListingInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	l, err := h.Service.Submit(c.UserContext(), middleware.GetPrincipal(c), in)
	if err != nil {
		return fail(c, err)
	}
	return response.SuccessCreated(c, "Listing submitted for review", fiber.Map{"listing_id": l.ListingID, "status": l.Status}, nil)
}

// PUT /api/listings/:id
func (h *Handlers) Edit(c *fiber.Ctx) error {
	id, ok := listingID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid listing id", nil)
	}
	var in listsvc.ListingInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	l, err := h.Service.Edit(c.UserContext(), middleware.GetPrincipal(c), id, in)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing updated and pending review", l, nil)
}

// GET /api/listings/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := listingID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid listing id", nil)
	}
	v, err := h.Service.Get(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing fetched successfully", v, nil)
}

// GET /api/listings
func (h *Handlers) Recent(c *fiber.Ctx) error {
	views, err := h.Service.Recent(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listings fetched successfully", views, nil)
}

// GET /api/listings/search
func (h *Handlers) Search(c *fiber.Ctx) error {
	res, err := h.Service.Search(c.UserContext(), middleware.GetPrincipal(c), listsvc.SearchInput{
		Type:     c.Query("type"),
		Category: c.Query("category"),
		Location: c.Query("location"),
		Date:     c.Query("date"),
		Status:   c.Query("status"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", listsvc.DefaultPageSize),
	})
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listings fetched successfully", res.Listings,
		response.Page{Page: res.Page, Limit: res.Limit, Total: res.Total})
}

// GET /api/listings/mine
func (h *Handlers) Mine(c *fiber.Ctx) error {
	views, err := h.Service.Mine(c.UserContext(), middleware.GetPrincipal(c).UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listings fetched successfully", views, nil)
}

// GET /api/listings/pending
func (h *Handlers) Pending(c *fiber.Ctx) error {
	rows, err := h.Service.Pending(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Pending listings fetched successfully", rows, nil)
}

type reviewRequest struct {
	ListingID       int64  `json:"listingId"`
	Status          string `json:"status"`
	Comment         string `json:"comment"`
	RejectionReason string `json:"rejection_reason"`
}

// POST /api/listings/review-listing
func (h *Handlers) Review(c *fiber.Ctx) error {
	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if req.ListingID <= 0 {
		return response.BadRequest(c, "listingId is required", nil)
	}
	l, err := h.Service.Review(c.UserContext(), middleware.GetPrincipal(c), listsvc.ReviewInput{
		ListingID:       req.ListingID,
		Status:          req.Status,
		Comment:         req.Comment,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing "+l.Status, l, nil)
}

type listingRef struct {
	ListingID int64 `json:"listing_id"`
}

func parseRef(c *fiber.Ctx) (int64, bool) {
	var ref listingRef
	if err := c.BodyParser(&ref); err != nil || ref.ListingID <= 0 {
		return 0, false
	}
	return ref.ListingID, true
}

// POST /api/listings/favorites
func (h *Handlers) AddFavorite(c *fiber.Ctx) error {
	id, ok := parseRef(c)
	if !ok {
		return response.BadRequest(c, "listing_id is required", nil)
	}
	created, err := h.Service.AddFavorite(c.UserContext(), middleware.GetPrincipal(c).UserID, id)
	if err != nil {
		return fail(c, err)
	}
	if !created {
		return response.Success(c, "Listing already favorited", fiber.Map{"listing_id": id}, nil)
	}
	return response.SuccessCreated(c, "Listing added to favorites", fiber.Map{"listing_id": id}, nil)
}

// DELETE /api/listings/favorites/:listing_id
func (h *Handlers) RemoveFavorite(c *fiber.Ctx) error {
	id, ok := listingID(c, "listing_id")
	if !ok {
		return response.BadRequest(c, "Invalid listing id", nil)
	}
	if err := h.Service.RemoveFavorite(c.UserContext(), middleware.GetPrincipal(c).UserID, id); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing removed from favorites", fiber.Map{"listing_id": id}, nil)
}

// GET /api/listings/favorites
func (h *Handlers) Favorites(c *fiber.Ctx) error {
	views, err := h.Service.Favorites(c.UserContext(), middleware.GetPrincipal(c).UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Favorites fetched successfully", views, nil)
}

// POST /api/listings/notifications/opt-in
func (h *Handlers) OptIn(c *fiber.Ctx) error {
	id, ok := parseRef(c)
	if !ok {
		return response.BadRequest(c, "listing_id is required", nil)
	}
	if err := h.Service.OptIn(c.UserContext(), middleware.GetPrincipal(c).UserID, id); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Opted in to listing notifications", fiber.Map{"listing_id": id, "opted_in": true}, nil)
}

// POST /api/listings/notifications/opt-out
func (h *Handlers) OptOut(c *fiber.Ctx) error {
	id, ok := parseRef(c)
	if !ok {
		return response.BadRequest(c, "listing_id is required", nil)
	}
	if err := h.Service.OptOut(c.UserContext(), middleware.GetPrincipal(c).UserID, id); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Opted out of listing notifications", fiber.Map{"listing_id": id, "opted_in": false}, nil)
}
