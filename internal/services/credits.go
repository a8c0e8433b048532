package services

import (
	"context"
	"fmt"
	"strconv"

	"cardify-api/internal/database"
	"cardify-api/internal/models"
	"cardify-api/pkg/logging"
)

// CreditService applies credits-purchase checkout events to the ledger and
// the user's balance. The ledger's unique payment ref is the one true
// idempotency key for this path.
type CreditService struct {
	db *database.DB
}

func NewCreditService(db *database.DB) *CreditService {
	return &CreditService{db: db}
}

// HandleCheckoutCompleted processes a completed checkout session. Sessions
// not tagged as credits purchases, and sessions with incomplete metadata,
// are dropped without error: they are either foreign traffic or permanently
// malformed, and redelivery cannot fix either.
func (s *CreditService) HandleCheckoutCompleted(ctx context.Context, session *models.CheckoutSessionData) error {
	if !session.IsCreditsPurchase() {
		return nil
	}

	userID := session.UserID()
	credits, _ := strconv.ParseInt(session.CreditsRequested(), 10, 64)
	if userID == "" || credits <= 0 {
		logging.Warnf("credits purchase %s missing metadata (user=%q credits=%q), dropping",
			session.ID, userID, session.CreditsRequested())
		return nil
	}

	granted, err := s.db.GrantCredits(&models.CreditLedgerEntry{
		UserID:        userID,
		PaymentIntent: session.PaymentRef(),
		AmountCents:   session.AmountTotal,
		Credits:       credits,
		Reason:        "purchase",
	})
	if err != nil {
		return fmt.Errorf("grant credits for session %s: %w", session.ID, err)
	}

	if !granted {
		logging.Infof("credits already granted for payment %s, replay ignored", session.PaymentRef())
		return nil
	}

	logging.Infof("granted %d credits to user %s - payment: %s", credits, userID, session.PaymentRef())
	return nil
}
