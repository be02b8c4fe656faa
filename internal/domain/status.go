package domain

// Listing types.
const (
	ListingTypeEvent    = "event"
	ListingTypeVendor   = "vendor"
	ListingTypeTemple   = "temple"
	ListingTypeActivity = "activity"
)

// Review lifecycle statuses. Coupons use StatusActive in place of StatusApproved.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusActive   = "active"
)

// Discount types.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Notification types.
const (
	NotificationListingReviewed = "listing_reviewed"
	NotificationListingPending  = "listing_pending"
	NotificationCouponReviewed  = "coupon_reviewed"
	NotificationCouponPending   = "coupon_pending"
)

// ValidListingType reports whether t is one of the four listing types.
func ValidListingType(t string) bool {
	switch t {
	case ListingTypeEvent, ListingTypeVendor, ListingTypeTemple, ListingTypeActivity:
		return true
	}
	return false
}
