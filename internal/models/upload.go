package models

// UploadedImage is a raw upload from the card designer, before it is
// promoted to a UserAsset. Kept separate because the upload pipeline writes
// here while the profile page lists user_assets; the asset-delete endpoint
// accepts either table.
type UploadedImage struct {
	BaseModel

	UserID      string `json:"user_id" gorm:"not null;size:36;index"`
	StoragePath string `json:"storage_path" gorm:"size:500"`
	ImageURL    string `json:"image_url" gorm:"size:500"`
}

func (UploadedImage) TableName() string {
	return "uploaded_images"
}
