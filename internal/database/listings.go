package database

import (
	"errors"

	"cardify-api/internal/models"

	"gorm.io/gorm"
)

// GetListing returns a listing by id, or nil when it does not exist.
func (db *DB) GetListing(id string) (*models.Listing, error) {
	var listing models.Listing
	err := db.gorm.Where("id = ?", id).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// ResolveListingAssetID maps a listing to the user_assets row backing it.
// Listings created from an asset reference it directly; older listings carry
// a legacy (source_type, source_id) pair that has to be looked up. Returns
// "" when no asset can be resolved.
func (db *DB) ResolveListingAssetID(listingID string) (string, error) {
	listing, err := db.GetListing(listingID)
	if err != nil || listing == nil {
		return "", err
	}

	if listing.SourceType == models.SourceTypeAsset {
		return listing.SourceID, nil
	}

	var asset models.UserAsset
	err = db.gorm.
		Where("source_type = ? AND source_id = ?", listing.SourceType, listing.SourceID).
		Limit(1).
		First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return asset.ID, nil
}

// MarkListingSold flips a listing to sold/inactive and records the buyer.
// Only used under the transfer-ownership fulfillment policy.
func (db *DB) MarkListingSold(listingID, buyerID string) error {
	return db.gorm.Model(&models.Listing{}).
		Where("id = ?", listingID).
		Updates(map[string]interface{}{
			"status":    models.ListingStatusSold,
			"is_active": false,
			"buyer_id":  buyerID,
		}).Error
}

// InactivateListedAsset deactivates any listed listing a seller has for an
// asset. Run before the asset row itself is deleted so no active listing
// points at a missing file.
func (db *DB) InactivateListedAsset(sellerID, assetID string) error {
	return db.gorm.Model(&models.Listing{}).
		Where("seller_id = ? AND source_type = ? AND source_id = ? AND status = ?",
			sellerID, models.SourceTypeAsset, assetID, models.ListingStatusListed).
		Updates(map[string]interface{}{
			"status":    models.ListingStatusInactive,
			"is_active": false,
		}).Error
}

// TransferAssetOwnership moves a user_assets row to a new owner.
func (db *DB) TransferAssetOwnership(assetID, newOwnerID string) error {
	return db.gorm.Model(&models.UserAsset{}).
		Where("id = ?", assetID).
		Update("owner_id", newOwnerID).Error
}
