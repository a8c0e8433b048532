package database

import (
	"errors"

	"cardify-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetProfile returns a profile by user id, or nil when none exists.
func (db *DB) GetProfile(userID string) (*models.SellerProfile, error) {
	var profile models.SellerProfile
	err := db.gorm.Where("id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetVerifiedByAccountRef recomputes the derived seller-readiness flags on
// every profile linked to the connected account. Returns the matched row
// count so the caller can fall back to the metadata link.
func (db *DB) SetVerifiedByAccountRef(accountRef string, verified bool) (int64, error) {
	res := db.gorm.Model(&models.SellerProfile{}).
		Where("stripe_account_id = ?", accountRef).
		Updates(map[string]interface{}{
			"stripe_verified": verified,
			"is_seller":       verified,
		})
	return res.RowsAffected, res.Error
}

// UpsertProfileAccount links a connected account to a user's profile,
// creating the profile when it does not exist yet. Self-healing path for
// accounts created before the profile row was.
func (db *DB) UpsertProfileAccount(userID, email, accountRef string, verified bool) error {
	assignments := map[string]interface{}{
		"stripe_account_id": accountRef,
		"stripe_verified":   verified,
		"is_seller":         verified,
	}
	if email != "" {
		assignments["email"] = email
	}

	profile := &models.SellerProfile{
		BaseModel:       models.BaseModel{ID: userID},
		Email:           email,
		StripeAccountID: accountRef,
		StripeVerified:  verified,
		IsSeller:        verified,
	}

	return db.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(profile).Error
}

// addCredits adds credits to a user's balance with a single server-side
// increment. When no profile row exists yet one is created with the delta as
// the starting balance; the insert/increment pair stays correct under
// concurrent grants because the insert is conflict-guarded.
func addCredits(g *gorm.DB, userID string, delta int64) error {
	res := g.Model(&models.SellerProfile{}).
		Where("id = ?", userID).
		UpdateColumn("credits", gorm.Expr("credits + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	created := g.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&models.SellerProfile{
		BaseModel: models.BaseModel{ID: userID},
		Credits:   delta,
	})
	if created.Error != nil {
		return created.Error
	}
	if created.RowsAffected > 0 {
		return nil
	}

	// A concurrent writer created the row between the two statements.
	return g.Model(&models.SellerProfile{}).
		Where("id = ?", userID).
		UpdateColumn("credits", gorm.Expr("credits + ?", delta)).Error
}
