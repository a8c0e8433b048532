package models

// SellerProfile is the marketplace profile row for a user. StripeVerified is
// a derived value recomputed from every account event, never treated as an
// independent source of truth.
type SellerProfile struct {
	BaseModel

	Email string `json:"email" gorm:"size:255"`

	StripeAccountID string `json:"stripe_account_id" gorm:"size:100;index"`
	StripeVerified  bool   `json:"stripe_verified"`
	IsSeller        bool   `json:"is_seller"`
	IsAdmin         bool   `json:"is_admin"`

	Credits int64 `json:"credits" gorm:"default:0"`
}

func (SellerProfile) TableName() string {
	return "mkt_profiles"
}

// CreditLedgerEntry is the append-only record of a credits purchase.
// PaymentIntent is unique: it is the one true idempotency key for the
// credits path, so a redelivered checkout event cannot double-credit.
type CreditLedgerEntry struct {
	BaseModel

	UserID        string `json:"user_id" gorm:"not null;size:36;index"`
	PaymentIntent string `json:"payment_intent" gorm:"not null;size:100;uniqueIndex"`
	AmountCents   int64  `json:"amount_cents"`
	Credits       int64  `json:"credits" gorm:"not null"`
	Reason        string `json:"reason" gorm:"size:50;default:'purchase'"`
}

func (CreditLedgerEntry) TableName() string {
	return "credits_ledger"
}
