package services

import (
	"fmt"
	"testing"

	"cardify-api/internal/models"
)

// stubPayments is a canned-response PaymentAPI for tests.
type stubPayments struct {
	accounts        map[string]*models.AccountData
	createdAccounts int
}

func (s *stubPayments) CreateIntent(p IntentParams) (*models.PaymentIntentData, error) {
	return &models.PaymentIntentData{
		ID:                   fmt.Sprintf("pi_stub_%d", s.createdAccounts),
		Amount:               p.AmountCents,
		ApplicationFeeAmount: p.FeeCents,
		Currency:             p.Currency,
		Status:               "requires_payment_method",
		ClientSecret:         "secret_stub",
		Metadata:             p.Metadata,
		ConnectedAccount:     p.ConnectedAccount,
	}, nil
}

func (s *stubPayments) GetIntent(id, connectedAccount string) (*models.PaymentIntentData, error) {
	return nil, fmt.Errorf("no intent %s", id)
}

func (s *stubPayments) GetAccount(id string) (*models.AccountData, error) {
	acct, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("no such account: %s", id)
	}
	return acct, nil
}

func (s *stubPayments) CreateExpressAccount(userID, email string) (string, error) {
	s.createdAccounts++
	id := fmt.Sprintf("acct_new_%d", s.createdAccounts)
	if s.accounts == nil {
		s.accounts = map[string]*models.AccountData{}
	}
	s.accounts[id] = &models.AccountData{
		ID:           id,
		Requirements: models.AccountRequirementsData{CurrentlyDue: []string{"external_account"}},
		Metadata:     map[string]string{"user_id": userID},
	}
	return id, nil
}

func (s *stubPayments) OnboardingLink(accountID, refreshURL, returnURL string) (string, error) {
	return "https://connect.example/onboarding/" + accountID, nil
}

func (s *stubPayments) LoginLink(accountID string) (string, error) {
	return "https://connect.example/dashboard/" + accountID, nil
}

func readyAccount(id string) *models.AccountData {
	return &models.AccountData{
		ID:               id,
		ChargesEnabled:   true,
		PayoutsEnabled:   true,
		DetailsSubmitted: true,
	}
}

func TestMarkSellerReadinessRecomputes(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, &stubPayments{}, "https://cardify.example")

	if err := db.Gorm().Create(&models.SellerProfile{
		BaseModel:       models.BaseModel{ID: "user-1"},
		StripeAccountID: "acct_1",
	}).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	if err := svc.MarkSellerReadiness(readyAccount("acct_1")); err != nil {
		t.Fatalf("mark ready: %v", err)
	}
	var profile models.SellerProfile
	if err := db.Gorm().Where("id = ?", "user-1").First(&profile).Error; err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if !profile.StripeVerified || !profile.IsSeller {
		t.Errorf("profile = (verified=%t seller=%t), want both true", profile.StripeVerified, profile.IsSeller)
	}

	// Readiness is derived, not sticky: a later degraded snapshot flips it
	// back off.
	degraded := readyAccount("acct_1")
	degraded.Requirements.DisabledReason = "requirements.past_due"
	if err := svc.MarkSellerReadiness(degraded); err != nil {
		t.Fatalf("mark degraded: %v", err)
	}
	if err := db.Gorm().Where("id = ?", "user-1").First(&profile).Error; err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if profile.StripeVerified || profile.IsSeller {
		t.Errorf("profile = (verified=%t seller=%t), want both false after degradation",
			profile.StripeVerified, profile.IsSeller)
	}
}

func TestMarkSellerReadinessSelfHealsFromMetadata(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, &stubPayments{}, "https://cardify.example")

	acct := readyAccount("acct_orphan")
	acct.Metadata = map[string]string{"user_id": "user-9"}

	if err := svc.MarkSellerReadiness(acct); err != nil {
		t.Fatalf("mark ready: %v", err)
	}

	var profile models.SellerProfile
	if err := db.Gorm().Where("id = ?", "user-9").First(&profile).Error; err != nil {
		t.Fatalf("profile was not linked: %v", err)
	}
	if profile.StripeAccountID != "acct_orphan" || !profile.StripeVerified {
		t.Errorf("profile = (account=%q verified=%t), want linked and verified",
			profile.StripeAccountID, profile.StripeVerified)
	}
}

func TestOnboardCreatesAccountForNewSeller(t *testing.T) {
	db := newTestDB(t)
	payments := &stubPayments{}
	svc := NewAccountService(db, payments, "https://cardify.example")

	result, err := svc.Onboard("user-1", "seller@example.com")
	if err != nil {
		t.Fatalf("onboard: %v", err)
	}
	if result.AlreadyOnboarded {
		t.Error("new seller reported as already onboarded")
	}
	if result.URL == "" {
		t.Error("no onboarding link returned")
	}
	if payments.createdAccounts != 1 {
		t.Errorf("created accounts = %d, want 1", payments.createdAccounts)
	}

	var profile models.SellerProfile
	if err := db.Gorm().Where("id = ?", "user-1").First(&profile).Error; err != nil {
		t.Fatalf("profile was not stored: %v", err)
	}
	if profile.StripeAccountID == "" {
		t.Error("account id not stored on profile")
	}
	if profile.StripeVerified {
		t.Error("fresh account stored as verified")
	}
}

func TestOnboardReturnsDashboardWhenComplete(t *testing.T) {
	db := newTestDB(t)
	payments := &stubPayments{accounts: map[string]*models.AccountData{
		"acct_done": readyAccount("acct_done"),
	}}
	svc := NewAccountService(db, payments, "https://cardify.example")

	if err := db.Gorm().Create(&models.SellerProfile{
		BaseModel:       models.BaseModel{ID: "user-1"},
		StripeAccountID: "acct_done",
		StripeVerified:  true,
	}).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	result, err := svc.Onboard("user-1", "")
	if err != nil {
		t.Fatalf("onboard: %v", err)
	}
	if !result.AlreadyOnboarded || result.DashboardURL == "" {
		t.Errorf("result = %+v, want dashboard login link", result)
	}
	if payments.createdAccounts != 0 {
		t.Errorf("created accounts = %d, want 0", payments.createdAccounts)
	}
}

func TestOnboardRecreatesStaleAccount(t *testing.T) {
	db := newTestDB(t)
	payments := &stubPayments{}
	svc := NewAccountService(db, payments, "https://cardify.example")

	if err := db.Gorm().Create(&models.SellerProfile{
		BaseModel:       models.BaseModel{ID: "user-1"},
		StripeAccountID: "acct_gone",
	}).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	result, err := svc.Onboard("user-1", "")
	if err != nil {
		t.Fatalf("onboard: %v", err)
	}
	if result.URL == "" {
		t.Error("no onboarding link for recreated account")
	}
	if payments.createdAccounts != 1 {
		t.Errorf("created accounts = %d, want 1 (stale id replaced)", payments.createdAccounts)
	}

	var profile models.SellerProfile
	if err := db.Gorm().Where("id = ?", "user-1").First(&profile).Error; err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if profile.StripeAccountID == "acct_gone" {
		t.Error("stale account id still on profile")
	}
}

func TestStatusWithoutAccount(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, &stubPayments{}, "https://cardify.example")

	result, err := svc.Status("nobody")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if result.Connected {
		t.Error("user without account reported connected")
	}
}

func TestStatusReportsNextStep(t *testing.T) {
	db := newTestDB(t)
	incomplete := readyAccount("acct_mid")
	incomplete.DetailsSubmitted = false
	payments := &stubPayments{accounts: map[string]*models.AccountData{
		"acct_mid": incomplete,
	}}
	svc := NewAccountService(db, payments, "https://cardify.example")

	if err := db.Gorm().Create(&models.SellerProfile{
		BaseModel:       models.BaseModel{ID: "user-1"},
		StripeAccountID: "acct_mid",
	}).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	result, err := svc.Status("user-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !result.Connected || result.OnboardingComplete {
		t.Errorf("result = %+v, want connected but incomplete", result)
	}
	if result.OnboardingURL == "" {
		t.Error("no onboarding link for incomplete account")
	}

	payments.accounts["acct_mid"] = readyAccount("acct_mid")
	result, err = svc.Status("user-1")
	if err != nil {
		t.Fatalf("status after completion: %v", err)
	}
	if !result.OnboardingComplete || result.LoginURL == "" {
		t.Errorf("result = %+v, want complete with login link", result)
	}
}
