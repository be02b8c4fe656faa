package domain

type Category struct {
	CategoryID int64  `gorm:"column:category_id;primaryKey;autoIncrement" json:"category_id"`
	Name       string `gorm:"column:name;not null" json:"name"`
	Type       string `gorm:"column:type;type:varchar(20);not null;index" json:"type"`
}

func (Category) TableName() string {
	return "categories"
}

type ListingCategory struct {
	ListingID  int64 `gorm:"column:listing_id;primaryKey;autoIncrement:false" json:"listing_id"`
	CategoryID int64 `gorm:"column:category_id;primaryKey;autoIncrement:false" json:"category_id"`
}

func (ListingCategory) TableName() string {
	return "listing_categories"
}
