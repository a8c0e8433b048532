package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cardify-api/internal/config"
	"cardify-api/internal/database"
	"cardify-api/internal/models"
	"cardify-api/internal/services"

	"github.com/gin-gonic/gin"
)

const testWebhookSecret = "whsec_test"

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(&config.Config{
		DatabaseURL: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// stubPayments answers provider calls from canned state.
type stubPayments struct {
	intents  map[string]*models.PaymentIntentData
	accounts map[string]*models.AccountData
}

func (s *stubPayments) CreateIntent(p services.IntentParams) (*models.PaymentIntentData, error) {
	pi := &models.PaymentIntentData{
		ID:                   fmt.Sprintf("pi_new_%d", len(s.intents)+1),
		Amount:               p.AmountCents,
		ApplicationFeeAmount: p.FeeCents,
		Currency:             p.Currency,
		Status:               "requires_payment_method",
		ClientSecret:         "secret_new",
		Metadata:             p.Metadata,
		ConnectedAccount:     p.ConnectedAccount,
	}
	if s.intents == nil {
		s.intents = map[string]*models.PaymentIntentData{}
	}
	s.intents[pi.ID] = pi
	return pi, nil
}

func (s *stubPayments) GetIntent(id, connectedAccount string) (*models.PaymentIntentData, error) {
	pi, ok := s.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such intent: %s", id)
	}
	return pi, nil
}

func (s *stubPayments) GetAccount(id string) (*models.AccountData, error) {
	acct, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("no such account: %s", id)
	}
	return acct, nil
}

func (s *stubPayments) CreateExpressAccount(userID, email string) (string, error) {
	return "acct_stub", nil
}

func (s *stubPayments) OnboardingLink(accountID, refreshURL, returnURL string) (string, error) {
	return "https://connect.example/onboarding/" + accountID, nil
}

func (s *stubPayments) LoginLink(accountID string) (string, error) {
	return "https://connect.example/dashboard/" + accountID, nil
}

func newTestDeps(db *database.DB, payments services.PaymentAPI, secrets ...string) *Deps {
	cfg := &config.Config{
		JWTSecret:          "jwt-test-secret",
		FulfillmentPolicy:  config.PolicyGrantAccess,
		PlatformFeePercent: 5,
		PayoutDelayMinutes: 10,
		SiteURL:            "https://cardify.example",
	}
	return &Deps{
		Cfg:        cfg,
		DB:         db,
		Verifier:   services.NewSignatureVerifier(secrets),
		Cache:      services.NewEventCache(nil),
		Reconciler: services.NewReconciler(db, cfg.FulfillmentPolicy, 10*time.Minute),
		Credits:    services.NewCreditService(db),
		Accounts:   services.NewAccountService(db, payments, cfg.SiteURL),
		Payments:   payments,
	}
}

func newTestRouter(t *testing.T, payments *stubPayments, secrets ...string) (*gin.Engine, *database.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	r := gin.New()
	SetupRoutes(r, newTestDeps(db, payments, secrets...))
	return r, db
}

func signBody(secret string, body []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(r *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func eventBody(t *testing.T, id, eventType string, object interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(object)
	if err != nil {
		t.Fatalf("marshal event object: %v", err)
	}
	body, err := json.Marshal(map[string]interface{}{
		"id":     id,
		"object": "event",
		"type":   eventType,
		"data":   map[string]json.RawMessage{"object": raw},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return body
}

func seedPurchasable(t *testing.T, db *database.DB) (listingID, assetID, sellerID string) {
	t.Helper()
	seller := &models.SellerProfile{
		StripeAccountID: "acct_seller1",
		StripeVerified:  true,
		IsSeller:        true,
	}
	if err := db.Gorm().Create(seller).Error; err != nil {
		t.Fatalf("seed seller: %v", err)
	}
	asset := &models.UserAsset{OwnerID: seller.ID, StoragePath: "cards/a.png"}
	if err := db.Gorm().Create(asset).Error; err != nil {
		t.Fatalf("seed asset: %v", err)
	}
	listing := &models.Listing{
		SellerID:   seller.ID,
		SourceType: models.SourceTypeAsset,
		SourceID:   asset.ID,
		PriceCents: 1000,
		Currency:   "USD",
		Status:     models.ListingStatusListed,
		IsActive:   true,
	}
	if err := db.Gorm().Create(listing).Error; err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return listing.ID, asset.ID, seller.ID
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r, db := newTestRouter(t, &stubPayments{}, testWebhookSecret)
	seedPurchasable(t, db)

	body := eventBody(t, "evt_1", "payment_intent.succeeded", map[string]interface{}{"id": "pi_1"})
	w := postWebhook(r, body, signBody("whsec_wrong", body))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	var n int64
	db.Gorm().Model(&models.Transaction{}).Count(&n)
	if n != 0 {
		t.Errorf("transactions = %d, want 0 after rejected delivery", n)
	}
}

func TestWebhookWithoutConfiguredSecret(t *testing.T) {
	r, _ := newTestRouter(t, &stubPayments{})

	body := eventBody(t, "evt_1", "payment_intent.succeeded", map[string]interface{}{"id": "pi_1"})
	w := postWebhook(r, body, signBody(testWebhookSecret, body))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for missing secret", w.Code)
	}
}

func TestWebhookIgnoresUnknownEventType(t *testing.T) {
	r, db := newTestRouter(t, &stubPayments{}, testWebhookSecret)

	body := eventBody(t, "evt_1", "customer.created", map[string]interface{}{"id": "cus_1"})
	w := postWebhook(r, body, signBody(testWebhookSecret, body))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"received":true`) {
		t.Errorf("body = %s, want received ack", w.Body.String())
	}

	var n int64
	db.Gorm().Model(&models.Transaction{}).Count(&n)
	if n != 0 {
		t.Errorf("transactions = %d, want 0 for ignored event", n)
	}
}

func TestWebhookPaymentSucceededDeliveredTwice(t *testing.T) {
	r, db := newTestRouter(t, &stubPayments{}, testWebhookSecret)
	listingID, assetID, _ := seedPurchasable(t, db)

	object := map[string]interface{}{
		"id":                     "pi_e2e_1",
		"amount":                 1000,
		"application_fee_amount": 50,
		"currency":               "usd",
		"status":                 "succeeded",
		"metadata": map[string]string{
			models.MetaListingID: listingID,
			models.MetaBuyerID:   "buyer-1",
		},
	}

	for i, eventID := range []string{"evt_a", "evt_b"} {
		body := eventBody(t, eventID, "payment_intent.succeeded", object)
		w := postWebhook(r, body, signBody(testWebhookSecret, body))
		if w.Code != http.StatusOK {
			t.Fatalf("delivery %d: status = %d, body = %s", i+1, w.Code, w.Body.String())
		}
	}

	var n int64
	db.Gorm().Model(&models.Transaction{}).
		Where("stripe_payment_id = ? AND status = ?", "pi_e2e_1", models.TransactionStatusCompleted).
		Count(&n)
	if n != 1 {
		t.Errorf("completed transactions = %d, want 1", n)
	}
	db.Gorm().Model(&models.AccessGrant{}).
		Where("asset_id = ? AND grantee_id = ?", assetID, "buyer-1").
		Count(&n)
	if n != 1 {
		t.Errorf("access grants = %d, want 1", n)
	}
}

func TestWebhookChargeFallbackResolvesIntent(t *testing.T) {
	payments := &stubPayments{}
	r, db := newTestRouter(t, payments, testWebhookSecret)
	listingID, _, _ := seedPurchasable(t, db)

	payments.intents = map[string]*models.PaymentIntentData{
		"pi_from_charge": {
			ID:     "pi_from_charge",
			Amount: 1000,
			Status: "succeeded",
			Metadata: map[string]string{
				models.MetaListingID: listingID,
				models.MetaBuyerID:   "buyer-2",
			},
		},
	}

	body := eventBody(t, "evt_ch_1", "charge.succeeded", map[string]interface{}{
		"id":             "ch_1",
		"payment_intent": "pi_from_charge",
	})
	w := postWebhook(r, body, signBody(testWebhookSecret, body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var n int64
	db.Gorm().Model(&models.Transaction{}).
		Where("stripe_payment_id = ? AND status = ?", "pi_from_charge", models.TransactionStatusCompleted).
		Count(&n)
	if n != 1 {
		t.Errorf("completed transactions = %d, want 1 via charge fallback", n)
	}
}

func TestWebhookAccountUpdatedFlipsReadiness(t *testing.T) {
	r, db := newTestRouter(t, &stubPayments{}, testWebhookSecret)

	if err := db.Gorm().Create(&models.SellerProfile{
		BaseModel:       models.BaseModel{ID: "user-1"},
		StripeAccountID: "acct_w1",
	}).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	body := eventBody(t, "evt_acct_1", "account.updated", map[string]interface{}{
		"id":                "acct_w1",
		"charges_enabled":   true,
		"payouts_enabled":   true,
		"details_submitted": true,
		"requirements":      map[string]interface{}{"currently_due": []string{}},
	})
	w := postWebhook(r, body, signBody(testWebhookSecret, body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var profile models.SellerProfile
	if err := db.Gorm().Where("id = ?", "user-1").First(&profile).Error; err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if !profile.StripeVerified {
		t.Error("profile not marked verified after account.updated")
	}
}

func TestWebhookCreditsCheckoutGrantsOnce(t *testing.T) {
	r, db := newTestRouter(t, &stubPayments{}, testWebhookSecret)

	object := map[string]interface{}{
		"id":             "cs_1",
		"amount_total":   500,
		"payment_intent": "pi_cr_1",
		"metadata": map[string]string{
			models.MetaKind:    models.KindCreditsPurchase,
			models.MetaUserID:  "user-1",
			models.MetaCredits: "25",
		},
	}
	for _, eventID := range []string{"evt_cs_a", "evt_cs_b"} {
		body := eventBody(t, eventID, "checkout.session.completed", object)
		w := postWebhook(r, body, signBody(testWebhookSecret, body))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
	}

	var profile models.SellerProfile
	if err := db.Gorm().Where("id = ?", "user-1").First(&profile).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.Credits != 25 {
		t.Errorf("credits = %d, want 25", profile.Credits)
	}
}
