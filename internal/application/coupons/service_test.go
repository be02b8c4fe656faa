package coupons

import (
	"context"
	"testing"
	"time"

	notifsvc "listinghub-backend/internal/application/notifications"
	"listinghub-backend/internal/domain"
	"listinghub-backend/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCouponsTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return &Service{DB: db, Notifier: &notifsvc.Service{DB: db}}, db
}

func seedUser(t *testing.T, db *gorm.DB, admin bool) *domain.Principal {
	u := &domain.User{ExternalUID: uuid.NewString(), Email: uuid.NewString()[:8] + "@example.com", IsAdmin: admin}
	require.NoError(t, db.Create(u).Error)
	return &domain.Principal{UserID: u.UserID, ExternalUID: u.ExternalUID, Email: u.Email, IsAdmin: admin}
}

func couponInput(code string) CouponInput {
	return CouponInput{
		Code:          code,
		DiscountType:  "percentage",
		DiscountValue: 15,
		StartDate:     time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02"),
		ExpiryDate:    time.Now().UTC().AddDate(0, 1, 0).Format(time.RFC3339),
		Location:      "Houston, TX",
	}
}

func TestSubmit_CreatesPendingWithReview(t *testing.T) {
	svc, db := setupCouponsTest(t)
	owner := seedUser(t, db, false)

	c, err := svc.Submit(context.Background(), owner, couponInput("  SAVE15 "))
	require.NoError(t, err)
	assert.Equal(t, "SAVE15", c.Code)
	assert.Equal(t, domain.StatusPending, c.Status)

	var n int64
	db.Model(&domain.CouponReview{}).Where("coupon_id = ?", c.CouponID).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestSubmit_Validation(t *testing.T) {
	svc, db := setupCouponsTest(t)
	owner := seedUser(t, db, false)
	ctx := context.Background()

	in := couponInput("BIG")
	in.DiscountValue = 150
	_, err := svc.Submit(ctx, owner, in)
	assert.ErrorIs(t, err, ErrPercentageTooLarge)

	in = couponInput("ZERO")
	in.DiscountValue = 0
	_, err = svc.Submit(ctx, owner, in)
	assert.ErrorIs(t, err, ErrInvalidDiscountValue)

	in = couponInput("BOGO")
	in.DiscountType = "bogo"
	_, err = svc.Submit(ctx, owner, in)
	assert.ErrorIs(t, err, ErrInvalidDiscountType)

	in = couponInput("BACKWARDS")
	in.StartDate, in.ExpiryDate = "2030-02-01", "2030-01-01"
	_, err = svc.Submit(ctx, owner, in)
	assert.ErrorIs(t, err, ErrDateOrder)

	in = couponInput("BADDATE")
	in.StartDate = "01/02/2030"
	_, err = svc.Submit(ctx, owner, in)
	assert.ErrorIs(t, err, ErrInvalidDate)

	in = couponInput("FIXED10")
	in.DiscountType = "fixed_amount"
	in.DiscountValue = 250
	c, err := svc.Submit(ctx, owner, in)
	require.NoError(t, err)
	assert.Equal(t, domain.DiscountFixed, c.DiscountType)
}

func TestSubmit_DuplicateCode(t *testing.T) {
	svc, db := setupCouponsTest(t)
	owner := seedUser(t, db, false)
	ctx := context.Background()

	_, err := svc.Submit(ctx, owner, couponInput("DUP"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, owner, couponInput("DUP"))
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestSubmit_ListingOwnership(t *testing.T) {
	svc, db := setupCouponsTest(t)
	owner := seedUser(t, db, false)
	other := seedUser(t, db, false)
	ctx := context.Background()

	l := &domain.Listing{Type: "vendor", Title: "Shop", Address: "a", City: "b", State: "TX", Status: "approved", UserID: owner.UserID}
	require.NoError(t, db.Create(l).Error)

	in := couponInput("MINE")
	in.ListingID = &l.ListingID
	_, err := svc.Submit(ctx, other, in)
	assert.ErrorIs(t, err, ErrListingForbidden)

	missing := int64(999)
	in.ListingID = &missing
	_, err = svc.Submit(ctx, owner, in)
	assert.ErrorIs(t, err, ErrListingNotFound)

	in.ListingID = &l.ListingID
	_, err = svc.Submit(ctx, owner, in)
	assert.NoError(t, err)
}

func TestApprove_SetsActive(t *testing.T) {
	svc, db := setupCouponsTest(t)
	owner := seedUser(t, db, false)
	admin := seedUser(t, db, true)
	ctx := context.Background()
	c, err := svc.Submit(ctx, owner, couponInput("WELCOME"))
	require.NoError(t, err)

	_, err = svc.Approve(ctx, owner, c.CouponID, DecisionInput{})
	assert.ErrorIs(t, err, ErrAdminRequired)

	got, err := svc.Approve(ctx, admin, c.CouponID, DecisionInput{Comment: "ok"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, admin.UserID, *got.ApprovedBy)

	var note domain.Notification
	require.NoError(t, db.Where("user_id = ?", owner.UserID).First(&note).Error)
	assert.Equal(t, `Your coupon "WELCOME" has been approved.`, note.Message)

	_, err = svc.Approve(ctx, admin, c.CouponID, DecisionInput{})
	var state *StateError
	assert.ErrorAs(t, err, &state)

	_, err = svc.Approve(ctx, admin, 4242, DecisionInput{})
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestReject_RequiresReason(t *testing.T) {
	svc, db := setupCouponsTest(t)
	owner := seedUser(t, db, false)
	admin := seedUser(t, db, true)
	ctx := context.Background()
	c, err := svc.Submit(ctx, owner, couponInput("NOPE"))
	require.NoError(t, err)

	_, err = svc.Reject(ctx, admin, c.CouponID, DecisionInput{})
	assert.ErrorIs(t, err, ErrRejectionReasonRequired)

	got, err := svc.Reject(ctx, admin, c.CouponID, DecisionInput{RejectionReason: "Expired terms"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)
	require.NotNil(t, got.RejectionReason)
	assert.Equal(t, "Expired terms", *got.RejectionReason)
}

func TestEdit_ActiveReturnsToPending(t *testing.T) {
	svc, db := setupCouponsTest(t)
	owner := seedUser(t, db, false)
	admin := seedUser(t, db, true)
	ctx := context.Background()
	c, err := svc.Submit(ctx, owner, couponInput("SPRING"))
	require.NoError(t, err)
	_, err = svc.Approve(ctx, admin, c.CouponID, DecisionInput{})
	require.NoError(t, err)

	in := couponInput("SPRING")
	in.DiscountValue = 20
	got, err := svc.Edit(ctx, owner, c.CouponID, in)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Nil(t, got.ApprovedBy)
	assert.Equal(t, 20.0, got.DiscountValue)

	var reviews int64
	db.Model(&domain.CouponReview{}).Where("coupon_id = ?", c.CouponID).Count(&reviews)
	assert.Equal(t, int64(3), reviews)

	var pending int64
	db.Model(&domain.Notification{}).Where("type = ?", domain.NotificationCouponPending).Count(&pending)
	assert.Equal(t, int64(1), pending)

	stranger := seedUser(t, db, false)
	_, err = svc.Edit(ctx, stranger, c.CouponID, in)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestQueries(t *testing.T) {
	svc, db := setupCouponsTest(t)
	owner := seedUser(t, db, false)
	admin := seedUser(t, db, true)
	ctx := context.Background()

	a, err := svc.Submit(ctx, owner, couponInput("TEXAS10"))
	require.NoError(t, err)
	_, err = svc.Approve(ctx, admin, a.CouponID, DecisionInput{})
	require.NoError(t, err)

	expired := couponInput("OLD")
	expired.StartDate, expired.ExpiryDate = "2020-01-01", "2020-02-01"
	b, err := svc.Submit(ctx, owner, expired)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, admin, b.CouponID, DecisionInput{})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, owner, couponInput("WAITING"))
	require.NoError(t, err)

	approved, err := svc.Approved(ctx, "texas")
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "TEXAS10", approved[0].Code)

	approved, err = svc.Approved(ctx, "Ohio")
	require.NoError(t, err)
	assert.Empty(t, approved)

	summary, err := svc.HasPending(ctx, owner.UserID)
	require.NoError(t, err)
	assert.True(t, summary.HasPending)
	assert.Equal(t, int64(1), summary.PendingCoupons)

	mine, err := svc.Mine(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "WAITING", pending[0].Code)
	assert.Equal(t, owner.Email, pending[0].Submitter.Email)
}

func TestDecisionMessage_KeepsCodeVerbatim(t *testing.T) {
	assert.Equal(t, `Your coupon "SAVE"10" has been approved.`, DecisionMessage(`SAVE"10`, domain.StatusActive, ""))
	assert.Equal(t, `Your coupon "DIWALI" has been rejected. Reason: Too "generous"`, DecisionMessage("DIWALI", domain.StatusRejected, `Too "generous"`))
}
