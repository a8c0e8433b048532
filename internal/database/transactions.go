package database

import (
	"errors"
	"time"

	"cardify-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateTransaction inserts a new transaction row.
func (db *DB) CreateTransaction(tx *models.Transaction) error {
	return db.gorm.Create(tx).Error
}

// CompleteTransactionByPaymentRef marks any transaction carrying the payment
// ref completed and returns the number of rows matched. Matching an
// already-completed row is deliberate: a redelivered event resolves here as
// a benign rewrite and the cascade stops.
func (db *DB) CompleteTransactionByPaymentRef(ref string) (int64, error) {
	res := db.gorm.Model(&models.Transaction{}).
		Where("stripe_payment_id = ?", ref).
		Updates(map[string]interface{}{
			"status":     models.TransactionStatusCompleted,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

// CompletePendingTransaction completes the pending transaction for a
// (listing, buyer) pair and stamps the payment ref onto it. Covers rows
// created before the provider ref was known.
func (db *DB) CompletePendingTransaction(listingID, buyerID, ref string) (int64, error) {
	res := db.gorm.Model(&models.Transaction{}).
		Where("listing_id = ? AND buyer_id = ? AND status = ?",
			listingID, buyerID, models.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":            models.TransactionStatusCompleted,
			"stripe_payment_id": ref,
			"updated_at":        time.Now(),
		})
	return res.RowsAffected, res.Error
}

// UpsertCompletedTransaction inserts a completed transaction keyed on the
// payment ref; if a row for the ref raced into existence it is marked
// completed instead. Requires the unique index on stripe_payment_id.
func (db *DB) UpsertCompletedTransaction(tx *models.Transaction) error {
	tx.Status = models.TransactionStatusCompleted
	return db.gorm.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_payment_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     models.TransactionStatusCompleted,
			"updated_at": time.Now(),
		}),
	}).Create(tx).Error
}

// GetTransactionByPaymentRef returns the transaction for a payment ref, or
// nil when none exists.
func (db *DB) GetTransactionByPaymentRef(ref string) (*models.Transaction, error) {
	var tx models.Transaction
	err := db.gorm.Where("stripe_payment_id = ?", ref).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetPendingTransaction returns the open transaction for a (listing, buyer)
// pair, or nil when none exists.
func (db *DB) GetPendingTransaction(listingID, buyerID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := db.gorm.
		Where("listing_id = ? AND buyer_id = ? AND status = ?",
			listingID, buyerID, models.TransactionStatusPending).
		First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// RebindTransactionIntent points an existing pending transaction at a fresh
// payment intent (the previous intent became unusable).
func (db *DB) RebindTransactionIntent(txID, paymentRef, sellerAcct, currency string, amountCents, feeCents int64) error {
	return db.gorm.Model(&models.Transaction{}).
		Where("id = ?", txID).
		Updates(map[string]interface{}{
			"stripe_payment_id":  paymentRef,
			"seller_acct":        sellerAcct,
			"platform_fee_cents": feeCents,
			"amount_cents":       amountCents,
			"currency":           currency,
		}).Error
}
