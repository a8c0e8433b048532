package api

import (
	"net/http"

	"cardify-api/internal/response"
	"cardify-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

const (
	tableUserAssets     = "user_assets"
	tableUploadedImages = "uploaded_images"
)

type deleteAssetRequest struct {
	ID    string `json:"id" binding:"required"`
	Table string `json:"table"`
}

// DeleteAsset removes an asset or upload the caller owns. The stored blob
// is deleted before the database row: a failed blob delete keeps the row,
// so nothing in the database ever points at a file we silently failed to
// remove, and the client can retry.
func (d *Deps) DeleteAsset(c *gin.Context) {
	var req deleteAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "bad_request", "id is required")
		return
	}
	if req.Table == "" {
		req.Table = tableUserAssets
	}
	if req.Table != tableUserAssets && req.Table != tableUploadedImages {
		response.Error(c, http.StatusBadRequest, "invalid_table", "table must be user_assets or uploaded_images")
		return
	}
	userID := c.GetString("user_id")

	storagePath := ""
	switch req.Table {
	case tableUserAssets:
		asset, err := d.DB.GetUserAssetOwned(req.ID, userID)
		if err != nil {
			logging.Errorf("asset lookup failed: %v", err)
			response.Error(c, http.StatusInternalServerError, "db_error", "")
			return
		}
		if asset == nil {
			response.Error(c, http.StatusNotFound, "not_found", "")
			return
		}
		storagePath = asset.StoragePath

		// Any live listing backed by this asset must go dark first.
		if err := d.DB.InactivateListedAsset(userID, asset.ID); err != nil {
			logging.Errorf("listing inactivation failed for asset %s: %v", asset.ID, err)
			response.Error(c, http.StatusInternalServerError, "db_error", "")
			return
		}

	case tableUploadedImages:
		upload, err := d.DB.GetUploadedImageOwned(req.ID, userID)
		if err != nil {
			logging.Errorf("upload lookup failed: %v", err)
			response.Error(c, http.StatusInternalServerError, "db_error", "")
			return
		}
		if upload == nil {
			response.Error(c, http.StatusNotFound, "not_found", "")
			return
		}
		storagePath = upload.StoragePath
	}

	if storagePath != "" {
		if d.Storage == nil {
			logging.Errorf("delete of %s/%s needs blob storage but none is configured", req.Table, req.ID)
			response.Error(c, http.StatusInternalServerError, "storage_not_configured", "")
			return
		}
		if err := d.Storage.RemoveObject(c.Request.Context(), storagePath); err != nil {
			logging.Errorf("blob delete failed for %s: %v", storagePath, err)
			response.Error(c, http.StatusInternalServerError, "storage_delete_failed", "")
			return
		}
	}

	var err error
	if req.Table == tableUserAssets {
		err = d.DB.DeleteUserAsset(req.ID)
	} else {
		err = d.DB.DeleteUploadedImage(req.ID)
	}
	if err != nil {
		logging.Errorf("row delete failed for %s/%s: %v", req.Table, req.ID, err)
		response.Error(c, http.StatusInternalServerError, "db_delete_failed", "")
		return
	}

	response.OK(c, gin.H{"ok": true})
}
