package database

import (
	"cardify-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateAccessGrant inserts an access grant. A grant already existing for
// the (asset, grantee) pair is not an error: redelivered payment events land
// here and must come out clean.
func (db *DB) CreateAccessGrant(grant *models.AccessGrant) error {
	return db.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset_id"}, {Name: "grantee_id"}},
		DoNothing: true,
	}).Create(grant).Error
}

// SchedulePayout inserts a pending payout keyed on the payment ref. Returns
// whether a row was actually written; a conflict means the payout for this
// payment was already scheduled by an earlier delivery.
func (db *DB) SchedulePayout(payout *models.Payout) (bool, error) {
	res := db.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_ref"}},
		DoNothing: true,
	}).Create(payout)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GrantCredits appends a credits-ledger row and bumps the user's balance in
// one transaction. Returns whether the grant happened; false means the
// payment ref was already in the ledger, i.e. the event is a replay and the
// balance did not move. Coupling the two writes means a crash can never
// leave a ledger row whose credits were not applied.
func (db *DB) GrantCredits(entry *models.CreditLedgerEntry) (bool, error) {
	granted := false
	err := db.gorm.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_intent"}},
			DoNothing: true,
		}).Create(entry)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		granted = true
		return addCredits(tx, entry.UserID, entry.Credits)
	})
	if err != nil {
		return false, err
	}
	return granted, nil
}
