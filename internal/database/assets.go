package database

import (
	"errors"

	"cardify-api/internal/models"

	"gorm.io/gorm"
)

// GetUserAssetOwned returns the asset only when the given user owns it.
func (db *DB) GetUserAssetOwned(id, ownerID string) (*models.UserAsset, error) {
	var asset models.UserAsset
	err := db.gorm.Where("id = ? AND owner_id = ?", id, ownerID).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// GetUploadedImageOwned returns the upload only when the given user owns it.
func (db *DB) GetUploadedImageOwned(id, userID string) (*models.UploadedImage, error) {
	var upload models.UploadedImage
	err := db.gorm.Where("id = ? AND user_id = ?", id, userID).First(&upload).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

// DeleteUserAsset removes a user_assets row.
func (db *DB) DeleteUserAsset(id string) error {
	return db.gorm.Where("id = ?", id).Delete(&models.UserAsset{}).Error
}

// DeleteUploadedImage removes an uploaded_images row.
func (db *DB) DeleteUploadedImage(id string) error {
	return db.gorm.Where("id = ?", id).Delete(&models.UploadedImage{}).Error
}

// InsertAppEvent appends one usage event to the analytics log.
func (db *DB) InsertAppEvent(event *models.AppEvent) error {
	return db.gorm.Create(event).Error
}
