package models

import (
	"time"
)

// Transaction status values.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
)

// Transaction records one purchase attempt of a listing. Created pending by
// the payment-intent endpoint and flipped to completed by the webhook
// reconciler. StripePaymentID is the provider's payment-intent id and the
// idempotency key for the whole marketplace path: at most one row exists per
// id, enforced by the unique index. It is NULL until the provider ref is
// known; NULLs are exempt from the index, so any number of ref-less pending
// rows can coexist.
type Transaction struct {
	BaseModel

	ListingID string `json:"listing_id" gorm:"not null;size:36;index"`
	BuyerID   string `json:"buyer_id" gorm:"not null;size:36;index"`

	AmountCents int64  `json:"amount_cents" gorm:"not null"`
	Currency    string `json:"currency" gorm:"size:3;default:'USD'"`

	StripePaymentID *string `json:"stripe_payment_id" gorm:"size:100;uniqueIndex"`
	Status          string  `json:"status" gorm:"not null;size:20;default:'pending';index"`

	// SellerAcct is the connected account the charge ran on; empty for
	// platform-operated listings.
	SellerAcct       string `json:"seller_acct" gorm:"size:100"`
	PlatformFeeCents int64  `json:"platform_fee_cents"`
}

func (Transaction) TableName() string {
	return "mkt_transactions"
}

// PaymentRef returns the provider's payment-intent id, or "" while the
// transaction has not been bound to one yet.
func (t *Transaction) PaymentRef() string {
	if t.StripePaymentID == nil {
		return ""
	}
	return *t.StripePaymentID
}

// Payout status values.
const PayoutStatusPending = "pending"

// Payout is a scheduled transfer of net sale proceeds to a seller's
// connected account. PaymentRef carries the payment-intent id that produced
// the payout; its unique index guarantees at most one payout per payment no
// matter how often the provider redelivers the event.
type Payout struct {
	BaseModel

	ListingID       string    `json:"listing_id" gorm:"not null;size:36;index"`
	StripeAccountID string    `json:"stripe_account_id" gorm:"not null;size:100"`
	AmountCents     int64     `json:"amount_cents" gorm:"not null"`
	PaymentRef      string    `json:"payment_ref" gorm:"size:100;uniqueIndex"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	Status          string    `json:"status" gorm:"not null;size:20;default:'pending'"`
}

func (Payout) TableName() string {
	return "mkt_payouts"
}
