package listings

import (
	"context"

	"listinghub-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	unknownVendor   = "Unknown Vendor"
	unknownActivity = "Unknown Activity"
)

// ListingView is a listing with its type details, media, categories and linked listings.
type ListingView struct {
	domain.Listing
	EventDetails    *domain.EventDetails    `json:"event_details,omitempty"`
	TempleDetails   *domain.TempleDetails   `json:"temple_details,omitempty"`
	VendorDetails   *domain.VendorDetails   `json:"vendor_details,omitempty"`
	ActivityDetails *domain.ActivityDetails `json:"activity_details,omitempty"`
	Media           []domain.Media          `json:"media"`
	Categories      []domain.Category       `json:"categories"`
	Vendors         []LinkedListing         `json:"vendors,omitempty"`
	Activities      []LinkedListing         `json:"activities,omitempty"`
	Owner           *Owner                  `json:"owner,omitempty"`
	OptedIn         *bool                   `json:"opted_in,omitempty"`
}

// LinkedListing is a vendor attached to an event or an activity attached to a temple.
type LinkedListing struct {
	ListingID    int64  `json:"listing_id"`
	Title        string `json:"title"`
	BusinessType string `json:"business_type,omitempty"`
	ActivityType string `json:"activity_type,omitempty"`
	Schedule     string `json:"schedule,omitempty"`
}

// Owner identifies the submitter. Email is only filled for the owner and admins.
type Owner struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	ExternalUID string    `json:"firebase_uid"`
	IsAdmin     bool      `json:"is_admin"`
}

type categoryRow struct {
	ListingID  int64
	CategoryID int64
	Name       string
	Type       string
}

type linkRow struct {
	OwnerID  int64
	TargetID int64
}

// aggregate loads everything attached to listings with one batched query per table.
// Output order follows the input order.
func aggregate(ctx context.Context, db *gorm.DB, listings []domain.Listing, withOwner bool) ([]ListingView, error) {
	views := make([]ListingView, len(listings))
	if len(listings) == 0 {
		return views, nil
	}
	db = db.WithContext(ctx)

	ids := make([]int64, len(listings))
	index := make(map[int64]*ListingView, len(listings))
	for i := range listings {
		ids[i] = listings[i].ListingID
		views[i] = ListingView{Listing: listings[i], Media: []domain.Media{}, Categories: []domain.Category{}}
		index[ids[i]] = &views[i]
	}

	var events []domain.EventDetails
	if err := db.Where("listing_id IN ?", ids).Find(&events).Error; err != nil {
		return nil, err
	}
	for i := range events {
		index[events[i].ListingID].EventDetails = &events[i]
	}
	var temples []domain.TempleDetails
	if err := db.Where("listing_id IN ?", ids).Find(&temples).Error; err != nil {
		return nil, err
	}
	for i := range temples {
		index[temples[i].ListingID].TempleDetails = &temples[i]
	}
	var vendors []domain.VendorDetails
	if err := db.Where("listing_id IN ?", ids).Find(&vendors).Error; err != nil {
		return nil, err
	}
	for i := range vendors {
		index[vendors[i].ListingID].VendorDetails = &vendors[i]
	}
	var activities []domain.ActivityDetails
	if err := db.Where("listing_id IN ?", ids).Find(&activities).Error; err != nil {
		return nil, err
	}
	for i := range activities {
		index[activities[i].ListingID].ActivityDetails = &activities[i]
	}

	var media []domain.Media
	if err := db.Where("listing_id IN ?", ids).Order("media_id ASC").Find(&media).Error; err != nil {
		return nil, err
	}
	for _, m := range media {
		v := index[m.ListingID]
		v.Media = append(v.Media, m)
	}

	var cats []categoryRow
	if err := db.Table("listing_categories AS lc").
		Select("lc.listing_id, c.category_id, c.name, c.type").
		Joins("JOIN categories AS c ON c.category_id = lc.category_id").
		Where("lc.listing_id IN ?", ids).
		Order("c.name ASC").
		Scan(&cats).Error; err != nil {
		return nil, err
	}
	for _, c := range cats {
		v := index[c.ListingID]
		v.Categories = append(v.Categories, domain.Category{CategoryID: c.CategoryID, Name: c.Name, Type: c.Type})
	}

	var eventVendors []linkRow
	if err := db.Model(&domain.EventVendor{}).
		Select("event_id AS owner_id, vendor_id AS target_id").
		Where("event_id IN ?", ids).
		Order("vendor_id ASC").
		Scan(&eventVendors).Error; err != nil {
		return nil, err
	}
	var templeActivities []linkRow
	if err := db.Model(&domain.TempleActivity{}).
		Select("temple_id AS owner_id, activity_id AS target_id").
		Where("temple_id IN ?", ids).
		Order("activity_id ASC").
		Scan(&templeActivities).Error; err != nil {
		return nil, err
	}
	if len(eventVendors)+len(templeActivities) > 0 {
		vendors, activities, err := loadLinked(db, eventVendors, templeActivities)
		if err != nil {
			return nil, err
		}
		for _, l := range eventVendors {
			v := index[l.OwnerID]
			ll, ok := vendors[l.TargetID]
			if !ok {
				ll = LinkedListing{ListingID: l.TargetID, Title: unknownVendor}
			}
			v.Vendors = append(v.Vendors, ll)
		}
		for _, l := range templeActivities {
			v := index[l.OwnerID]
			ll, ok := activities[l.TargetID]
			if !ok {
				ll = LinkedListing{ListingID: l.TargetID, Title: unknownActivity}
			}
			v.Activities = append(v.Activities, ll)
		}
	}

	if withOwner {
		userIDs := make([]uuid.UUID, 0, len(listings))
		for _, l := range listings {
			userIDs = append(userIDs, l.UserID)
		}
		var users []domain.User
		if err := db.Where("user_id IN ?", userIDs).Find(&users).Error; err != nil {
			return nil, err
		}
		owners := make(map[uuid.UUID]*Owner, len(users))
		for _, u := range users {
			owners[u.UserID] = &Owner{UserID: u.UserID, Email: u.Email, ExternalUID: u.ExternalUID, IsAdmin: u.IsAdmin}
		}
		for i := range views {
			views[i].Owner = owners[views[i].UserID]
		}
	}
	return views, nil
}

// loadLinked resolves titles and type details of linked listings. A target that is no longer
// a vendor (or activity) is left out and shows up as unknown.
func loadLinked(db *gorm.DB, eventVendors, templeActivities []linkRow) (vendors, activities map[int64]LinkedListing, err error) {
	var targets []int64
	for _, l := range eventVendors {
		targets = append(targets, l.TargetID)
	}
	for _, l := range templeActivities {
		targets = append(targets, l.TargetID)
	}
	targets = uniqueIDs(targets)

	var rows []domain.Listing
	if err := db.Select("listing_id", "title", "type").
		Where("listing_id IN ? AND type IN ?", targets, []string{domain.ListingTypeVendor, domain.ListingTypeActivity}).
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	vendors = make(map[int64]LinkedListing)
	activities = make(map[int64]LinkedListing)
	for _, r := range rows {
		ll := LinkedListing{ListingID: r.ListingID, Title: r.Title}
		if r.Type == domain.ListingTypeVendor {
			vendors[r.ListingID] = ll
		} else {
			activities[r.ListingID] = ll
		}
	}

	var vd []domain.VendorDetails
	if err := db.Where("listing_id IN ?", targets).Find(&vd).Error; err != nil {
		return nil, nil, err
	}
	for _, d := range vd {
		if ll, ok := vendors[d.ListingID]; ok {
			ll.BusinessType = d.BusinessType
			vendors[d.ListingID] = ll
		}
	}
	var ad []domain.ActivityDetails
	if err := db.Where("listing_id IN ?", targets).Find(&ad).Error; err != nil {
		return nil, nil, err
	}
	for _, d := range ad {
		if ll, ok := activities[d.ListingID]; ok {
			ll.ActivityType = d.ActivityType
			ll.Schedule = d.Schedule
			activities[d.ListingID] = ll
		}
	}
	return vendors, activities, nil
}
