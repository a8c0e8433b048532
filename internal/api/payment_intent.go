package api

import (
	"net/http"

	"cardify-api/internal/models"
	"cardify-api/internal/response"
	"cardify-api/internal/services"
	"cardify-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

type createIntentRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
}

type createIntentResponse struct {
	ClientSecret     string `json:"client_secret"`
	PaymentIntentID  string `json:"payment_intent_id"`
	ConnectedAccount string `json:"connected_account,omitempty"`
}

// CreatePaymentIntent starts a purchase of a listing. An open pending
// transaction for the same (listing, buyer) pair is reused when its intent
// is still payable, so a buyer who abandons the payment sheet and comes
// back does not pile up duplicate rows.
func (d *Deps) CreatePaymentIntent(c *gin.Context) {
	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "bad_request", "listing_id is required")
		return
	}
	buyerID := c.GetString("user_id")

	listing, err := d.DB.GetListing(req.ListingID)
	if err != nil {
		logging.Errorf("listing lookup failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "db_error", "")
		return
	}
	if listing == nil {
		response.Error(c, http.StatusNotFound, "listing_not_found", "")
		return
	}
	if !listing.Available() {
		response.Error(c, http.StatusConflict, "listing_unavailable", "listing is no longer available")
		return
	}

	seller, err := d.DB.GetProfile(listing.SellerID)
	if err != nil {
		logging.Errorf("seller profile lookup failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "db_error", "")
		return
	}

	// Admin-owned listings are charged on the platform account with no
	// application fee. Everyone else must have finished connect onboarding.
	sellerAcct := ""
	feeCents := int64(0)
	if seller == nil || !seller.IsAdmin {
		if seller == nil || !seller.StripeVerified || seller.StripeAccountID == "" {
			response.Error(c, http.StatusBadRequest, "seller_not_verified", "seller has not completed payout onboarding")
			return
		}
		sellerAcct = seller.StripeAccountID
		feeCents = platformFee(listing.PriceCents, d.Cfg.PlatformFeePercent)
	}

	// Reuse the open transaction's intent when it can still be paid.
	pending, err := d.DB.GetPendingTransaction(req.ListingID, buyerID)
	if err != nil {
		logging.Errorf("pending transaction lookup failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "db_error", "")
		return
	}
	if pending != nil && pending.PaymentRef() != "" {
		pi, err := d.Payments.GetIntent(pending.PaymentRef(), pending.SellerAcct)
		if err == nil && intentPayable(pi.Status) {
			response.OK(c, createIntentResponse{
				ClientSecret:     pi.ClientSecret,
				PaymentIntentID:  pi.ID,
				ConnectedAccount: pending.SellerAcct,
			})
			return
		}
	}

	pi, err := d.Payments.CreateIntent(services.IntentParams{
		AmountCents: listing.PriceCents,
		Currency:    listing.Currency,
		FeeCents:    feeCents,
		Metadata: map[string]string{
			models.MetaListingID: listing.ID,
			models.MetaBuyerID:   buyerID,
			models.MetaSellerID:  listing.SellerID,
		},
		ConnectedAccount: sellerAcct,
	})
	if err != nil {
		logging.Errorf("payment intent creation failed: %v", err)
		response.Error(c, http.StatusBadGateway, "payment_provider_error", "")
		return
	}

	if pending != nil {
		err = d.DB.RebindTransactionIntent(pending.ID, pi.ID, sellerAcct, listing.Currency, listing.PriceCents, feeCents)
	} else {
		err = d.DB.CreateTransaction(&models.Transaction{
			ListingID:        listing.ID,
			BuyerID:          buyerID,
			AmountCents:      listing.PriceCents,
			Currency:         listing.Currency,
			StripePaymentID:  &pi.ID,
			Status:           models.TransactionStatusPending,
			SellerAcct:       sellerAcct,
			PlatformFeeCents: feeCents,
		})
	}
	if err != nil {
		logging.Errorf("transaction persist failed for intent %s: %v", pi.ID, err)
		response.Error(c, http.StatusInternalServerError, "db_error", "")
		return
	}

	response.OK(c, createIntentResponse{
		ClientSecret:     pi.ClientSecret,
		PaymentIntentID:  pi.ID,
		ConnectedAccount: sellerAcct,
	})
}

// GetPaymentIntent returns the current state of a purchase by payment ref.
func (d *Deps) GetPaymentIntent(c *gin.Context) {
	ref := c.Param("id")

	tx, err := d.DB.GetTransactionByPaymentRef(ref)
	if err != nil {
		logging.Errorf("transaction lookup failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "db_error", "")
		return
	}
	if tx == nil {
		response.Error(c, http.StatusNotFound, "not_found", "")
		return
	}

	pi, err := d.Payments.GetIntent(ref, tx.SellerAcct)
	if err != nil {
		logging.Errorf("payment intent retrieval failed for %s: %v", ref, err)
		response.Error(c, http.StatusBadGateway, "payment_provider_error", "")
		return
	}

	response.OK(c, gin.H{
		"payment_intent": gin.H{
			"id":       pi.ID,
			"status":   pi.Status,
			"amount":   pi.Amount,
			"currency": pi.Currency,
		},
		"transaction": tx,
	})
}

// platformFee computes the marketplace cut in minor units, rounding half up.
func platformFee(priceCents int64, percent int) int64 {
	return (priceCents*int64(percent) + 50) / 100
}

// intentPayable reports whether an existing intent can still complete a
// checkout. Succeeded and canceled intents are terminal; everything else
// can be confirmed with a fresh payment method.
func intentPayable(status string) bool {
	switch status {
	case "succeeded", "canceled":
		return false
	}
	return true
}
