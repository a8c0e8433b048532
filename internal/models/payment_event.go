package models

// Narrowed webhook payloads. The router unmarshals the provider event's raw
// object into exactly one of these before any handler runs, so downstream
// code works with guaranteed-present typed fields instead of poking at maps.

// Metadata keys stamped onto payment intents at checkout creation.
const (
	MetaListingID = "mkt_listing_id"
	MetaBuyerID   = "mkt_buyer_id"
	MetaSellerID  = "mkt_seller_id"
)

// Metadata keys on credits-purchase checkout sessions.
const (
	MetaKind    = "kind"
	MetaUserID  = "userId"
	MetaCredits = "credits"

	KindCreditsPurchase = "credits_purchase"
)

// PaymentIntentData is the slice of a payment intent the reconciler needs.
type PaymentIntentData struct {
	ID                   string            `json:"id"`
	Amount               int64             `json:"amount"`
	ApplicationFeeAmount int64             `json:"application_fee_amount"`
	Currency             string            `json:"currency"`
	Status               string            `json:"status"`
	ClientSecret         string            `json:"client_secret"`
	Metadata             map[string]string `json:"metadata"`

	// ConnectedAccount comes from the event envelope, not the object; set
	// when the event was delivered on behalf of a connected account.
	ConnectedAccount string `json:"-"`
}

func (p *PaymentIntentData) meta(key string) string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata[key]
}

// ListingID returns the marketplace listing id from the intent metadata.
func (p *PaymentIntentData) ListingID() string { return p.meta(MetaListingID) }

// BuyerID returns the buyer's user id from the intent metadata.
func (p *PaymentIntentData) BuyerID() string { return p.meta(MetaBuyerID) }

// SellerID returns the seller's user id from the intent metadata.
func (p *PaymentIntentData) SellerID() string { return p.meta(MetaSellerID) }

// NetCents is the seller's share in minor units, clamped at zero.
func (p *PaymentIntentData) NetCents() int64 {
	net := p.Amount - p.ApplicationFeeAmount
	if net < 0 {
		return 0
	}
	return net
}

// CheckoutSessionData is the slice of a checkout session the credits path
// needs. PaymentIntent is the provider's intent id; sessions created without
// one fall back to the session id as the idempotency key.
type CheckoutSessionData struct {
	ID            string            `json:"id"`
	AmountTotal   int64             `json:"amount_total"`
	PaymentIntent string            `json:"payment_intent"`
	Metadata      map[string]string `json:"metadata"`
}

func (s *CheckoutSessionData) meta(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}

// IsCreditsPurchase reports whether the session was tagged as a credits
// purchase at creation time.
func (s *CheckoutSessionData) IsCreditsPurchase() bool {
	return s.meta(MetaKind) == KindCreditsPurchase
}

// UserID returns the purchasing user's id from the session metadata.
func (s *CheckoutSessionData) UserID() string { return s.meta(MetaUserID) }

// CreditsRequested returns the credit count from the session metadata.
func (s *CheckoutSessionData) CreditsRequested() string { return s.meta(MetaCredits) }

// PaymentRef returns the idempotency key for the ledger row.
func (s *CheckoutSessionData) PaymentRef() string {
	if s.PaymentIntent != "" {
		return s.PaymentIntent
	}
	return s.ID
}

// ChargeData carries the only field the charge fallback needs: the id of the
// payment intent the charge belongs to.
type ChargeData struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
}

// AccountRequirementsData mirrors the provider's account requirements block.
type AccountRequirementsData struct {
	CurrentlyDue   []string `json:"currently_due"`
	DisabledReason string   `json:"disabled_reason"`
}

// AccountData is an account-status snapshot from an account or capability
// event, or from a direct account retrieval.
type AccountData struct {
	ID               string                  `json:"id"`
	ChargesEnabled   bool                    `json:"charges_enabled"`
	PayoutsEnabled   bool                    `json:"payouts_enabled"`
	DetailsSubmitted bool                    `json:"details_submitted"`
	Requirements     AccountRequirementsData `json:"requirements"`
	Metadata         map[string]string       `json:"metadata"`
}

// Verified recomputes seller readiness from the snapshot. Always a pure
// function of the snapshot; a later snapshot with charges disabled flips the
// result back to false.
func (a *AccountData) Verified() bool {
	return a.ChargesEnabled &&
		a.PayoutsEnabled &&
		len(a.Requirements.CurrentlyDue) == 0 &&
		a.Requirements.DisabledReason == ""
}
