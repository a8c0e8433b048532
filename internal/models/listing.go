package models

// Listing status values.
const (
	ListingStatusListed   = "listed"
	ListingStatusSold     = "sold"
	ListingStatusInactive = "inactive"
)

// Source types a listing can point at. "asset" references a user_assets row
// directly; anything else is a legacy (source_type, source_id) pair that has
// to be resolved through user_assets.
const SourceTypeAsset = "asset"

// Listing is a seller's offer of a digital or physical asset at a fixed
// price.
type Listing struct {
	BaseModel

	SellerID   string `json:"seller_id" gorm:"not null;size:36;index"`
	SourceType string `json:"source_type" gorm:"not null;size:50"`
	SourceID   string `json:"source_id" gorm:"not null;size:36;index"`

	PriceCents int64  `json:"price_cents" gorm:"not null"`
	Currency   string `json:"currency" gorm:"size:3;default:'USD'"`

	Status   string `json:"status" gorm:"not null;size:20;default:'listed';index"`
	IsActive bool   `json:"is_active" gorm:"default:true"`

	// BuyerID is only set under the transfer-ownership fulfillment policy.
	BuyerID string `json:"buyer_id" gorm:"size:36"`
}

func (Listing) TableName() string {
	return "mkt_listings"
}

// Available reports whether the listing can still be purchased.
func (l *Listing) Available() bool {
	return l.Status == ListingStatusListed && l.IsActive
}

// UserAsset is an uploaded or generated piece of card artwork.
type UserAsset struct {
	BaseModel

	OwnerID     string `json:"owner_id" gorm:"not null;size:36;index"`
	SourceType  string `json:"source_type" gorm:"size:50;index:idx_asset_source"`
	SourceID    string `json:"source_id" gorm:"size:36;index:idx_asset_source"`
	StoragePath string `json:"storage_path" gorm:"size:500"`
	ImageURL    string `json:"image_url" gorm:"size:500"`
}

func (UserAsset) TableName() string {
	return "user_assets"
}

// AccessGrant gives a buyer permission to view a digital asset without
// transferring ownership. The (asset_id, grantee_id) pair is unique; a
// conflicting insert is how a replayed payment event turns into a no-op.
type AccessGrant struct {
	BaseModel

	AssetID   string `json:"asset_id" gorm:"not null;size:36;uniqueIndex:idx_grant_asset_grantee"`
	GranteeID string `json:"grantee_id" gorm:"not null;size:36;uniqueIndex:idx_grant_asset_grantee"`
	ListingID string `json:"listing_id" gorm:"size:36;index"`
}

func (AccessGrant) TableName() string {
	return "mkt_access_grants"
}
