package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cardify-api/internal/config"
	"cardify-api/internal/database"
	"cardify-api/internal/models"
	"cardify-api/pkg/logging"
)

// Reconciler turns verified successful-payment events into consistent local
// state: a completed transaction, an access grant for the buyer, the
// configured listing fulfillment step, and a scheduled payout. Every write
// is idempotent under replay, so the provider's at-least-once redelivery is
// the retry mechanism and no locking is needed.
type Reconciler struct {
	db          *database.DB
	policy      config.FulfillmentPolicy
	payoutDelay time.Duration
}

// NewReconciler wires the reconciler to its store, fulfillment policy and
// payout scheduling delay.
func NewReconciler(db *database.DB, policy config.FulfillmentPolicy, payoutDelay time.Duration) *Reconciler {
	return &Reconciler{
		db:          db,
		policy:      policy,
		payoutDelay: payoutDelay,
	}
}

type matchOutcome int

const (
	matchApplied matchOutcome = iota
	matchNone
)

// txMatcher is one strategy for locating the transaction a payment event
// belongs to. Strategies are tried in a fixed order; the first that applies
// wins.
type txMatcher struct {
	name string
	run  func() (matchOutcome, error)
}

// HandlePaymentSucceeded applies a successful payment to local state. An
// event without marketplace metadata is malformed or foreign and gets
// dropped with a warning instead of an error: redelivery cannot make a
// structurally incomplete event whole.
func (r *Reconciler) HandlePaymentSucceeded(ctx context.Context, pi *models.PaymentIntentData) error {
	listingID := pi.ListingID()
	buyerID := pi.BuyerID()
	if listingID == "" || buyerID == "" {
		logging.Warnf("payment %s missing marketplace metadata (listing=%q buyer=%q), dropping",
			pi.ID, listingID, buyerID)
		return nil
	}

	if err := r.completeTransaction(pi, listingID, buyerID); err != nil {
		return err
	}

	assetID, err := r.db.ResolveListingAssetID(listingID)
	if err != nil {
		return fmt.Errorf("resolve asset for listing %s: %w", listingID, err)
	}

	if assetID == "" {
		logging.Warnf("no asset mapped for listing %s, skipping access grant", listingID)
	} else {
		grant := &models.AccessGrant{
			AssetID:   assetID,
			GranteeID: buyerID,
			ListingID: listingID,
		}
		if err := r.db.CreateAccessGrant(grant); err != nil {
			return fmt.Errorf("access grant for asset %s: %w", assetID, err)
		}
	}

	if err := r.fulfillListing(listingID, buyerID, assetID); err != nil {
		return err
	}

	return r.schedulePayout(pi, listingID)
}

// completeTransaction runs the matching cascade. Matchers are evaluated in
// order and the driver stops at the first applied one; the trailing upsert
// always applies, so the cascade cannot fall through.
func (r *Reconciler) completeTransaction(pi *models.PaymentIntentData, listingID, buyerID string) error {
	matchers := []txMatcher{
		{
			// Common path, and the one every replay resolves to: the
			// transaction already carries the provider's payment ref.
			name: "payment_ref",
			run: func() (matchOutcome, error) {
				n, err := r.db.CompleteTransactionByPaymentRef(pi.ID)
				return appliedIf(n), err
			},
		},
		{
			// The transaction was created before the payment ref was
			// known; complete it and back-fill the ref.
			name: "pending_listing_buyer",
			run: func() (matchOutcome, error) {
				n, err := r.db.CompletePendingTransaction(listingID, buyerID, pi.ID)
				return appliedIf(n), err
			},
		},
		{
			// Lost-create race: no transaction row exists at all. The
			// unique index on the payment ref keeps this single-winner.
			name: "upsert_payment_ref",
			run: func() (matchOutcome, error) {
				tx := &models.Transaction{
					ListingID:        listingID,
					BuyerID:          buyerID,
					AmountCents:      pi.Amount,
					Currency:         normalizeCurrency(pi.Currency),
					StripePaymentID:  &pi.ID,
					SellerAcct:       pi.ConnectedAccount,
					PlatformFeeCents: pi.ApplicationFeeAmount,
				}
				return matchApplied, r.db.UpsertCompletedTransaction(tx)
			},
		},
	}

	for _, m := range matchers {
		outcome, err := m.run()
		if err != nil {
			return fmt.Errorf("transaction match %s for payment %s: %w", m.name, pi.ID, err)
		}
		if outcome == matchApplied {
			logging.Infof("transaction completed via %s matcher - payment: %s, listing: %s",
				m.name, pi.ID, listingID)
			return nil
		}
	}
	return nil
}

func appliedIf(rows int64) matchOutcome {
	if rows > 0 {
		return matchApplied
	}
	return matchNone
}

// fulfillListing applies the configured policy. Grant-access listings stay
// untouched so further buyers can purchase the same digital asset;
// transfer-ownership listings are closed out and the asset moves to the
// buyer. Both writes are absolute-state updates, so replays are no-ops.
func (r *Reconciler) fulfillListing(listingID, buyerID, assetID string) error {
	if r.policy != config.PolicyTransferOwnership {
		return nil
	}

	if err := r.db.MarkListingSold(listingID, buyerID); err != nil {
		return fmt.Errorf("mark listing %s sold: %w", listingID, err)
	}
	if assetID != "" {
		if err := r.db.TransferAssetOwnership(assetID, buyerID); err != nil {
			return fmt.Errorf("transfer asset %s: %w", assetID, err)
		}
	}
	return nil
}

// schedulePayout queues the seller's net proceeds. Skipped silently when the
// net is not positive or the seller has no payable account on file
// (platform-operated listings). The payout row is keyed on the payment ref,
// so redelivery cannot schedule twice.
func (r *Reconciler) schedulePayout(pi *models.PaymentIntentData, listingID string) error {
	net := pi.NetCents()
	sellerID := pi.SellerID()
	if net <= 0 || sellerID == "" {
		return nil
	}

	seller, err := r.db.GetProfile(sellerID)
	if err != nil {
		return fmt.Errorf("seller lookup for payout: %w", err)
	}
	if seller == nil || seller.StripeAccountID == "" {
		logging.Infof("seller %s has no payable account, skipping payout for listing %s",
			sellerID, listingID)
		return nil
	}

	created, err := r.db.SchedulePayout(&models.Payout{
		ListingID:       listingID,
		StripeAccountID: seller.StripeAccountID,
		AmountCents:     net,
		PaymentRef:      pi.ID,
		ScheduledAt:     time.Now().Add(r.payoutDelay),
		Status:          models.PayoutStatusPending,
	})
	if err != nil {
		return fmt.Errorf("schedule payout for payment %s: %w", pi.ID, err)
	}
	if created {
		logging.Infof("payout queued - listing: %s, net_cents: %d", listingID, net)
	}
	return nil
}

func normalizeCurrency(currency string) string {
	if currency == "" {
		return "USD"
	}
	return strings.ToUpper(currency)
}
