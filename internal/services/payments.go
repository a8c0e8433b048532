package services

import (
	"fmt"
	"strings"

	"cardify-api/internal/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// IntentParams describes a payment intent to create.
type IntentParams struct {
	AmountCents      int64
	Currency         string
	FeeCents         int64
	Metadata         map[string]string
	ConnectedAccount string
}

// PaymentAPI is the slice of the payment provider this service uses.
// Fronted by an interface so the webhook's charge fallback and the HTTP
// handlers can be exercised against a stub.
type PaymentAPI interface {
	CreateIntent(p IntentParams) (*models.PaymentIntentData, error)
	GetIntent(id, connectedAccount string) (*models.PaymentIntentData, error)
	GetAccount(id string) (*models.AccountData, error)
	CreateExpressAccount(userID, email string) (string, error)
	OnboardingLink(accountID, refreshURL, returnURL string) (string, error)
	LoginLink(accountID string) (string, error)
}

// StripeClient implements PaymentAPI over the Stripe SDK. Constructed once
// at startup and injected wherever needed.
type StripeClient struct {
	api *client.API
}

// NewStripeClient builds a client for the given secret key.
func NewStripeClient(secretKey string) *StripeClient {
	return &StripeClient{api: client.New(secretKey, nil)}
}

func (s *StripeClient) CreateIntent(p IntentParams) (*models.PaymentIntentData, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.AmountCents),
		Currency: stripe.String(strings.ToLower(p.Currency)),
	}
	if p.FeeCents > 0 {
		params.ApplicationFeeAmount = stripe.Int64(p.FeeCents)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	if p.ConnectedAccount != "" {
		params.SetStripeAccount(p.ConnectedAccount)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return intentData(pi, p.ConnectedAccount), nil
}

func (s *StripeClient) GetIntent(id, connectedAccount string) (*models.PaymentIntentData, error) {
	params := &stripe.PaymentIntentParams{}
	if connectedAccount != "" {
		params.SetStripeAccount(connectedAccount)
	}

	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent %s: %w", id, err)
	}
	return intentData(pi, connectedAccount), nil
}

func (s *StripeClient) GetAccount(id string) (*models.AccountData, error) {
	acct, err := s.api.Accounts.GetByID(id, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieve account %s: %w", id, err)
	}
	return accountData(acct), nil
}

func (s *StripeClient) CreateExpressAccount(userID, email string) (string, error) {
	params := &stripe.AccountParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Country: stripe.String("US"),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{
				Requested: stripe.Bool(true),
			},
			Transfers: &stripe.AccountCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	// The metadata link is what lets the webhook self-heal profiles for
	// accounts created before their profile row existed.
	params.AddMetadata("user_id", userID)

	acct, err := s.api.Accounts.New(params)
	if err != nil {
		return "", fmt.Errorf("create express account: %w", err)
	}
	return acct.ID, nil
}

func (s *StripeClient) OnboardingLink(accountID, refreshURL, returnURL string) (string, error) {
	link, err := s.api.AccountLinks.New(&stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return "", fmt.Errorf("create onboarding link: %w", err)
	}
	return link.URL, nil
}

func (s *StripeClient) LoginLink(accountID string) (string, error) {
	link, err := s.api.LoginLinks.New(&stripe.LoginLinkParams{
		Account: stripe.String(accountID),
	})
	if err != nil {
		return "", fmt.Errorf("create login link: %w", err)
	}
	return link.URL, nil
}

func intentData(pi *stripe.PaymentIntent, connectedAccount string) *models.PaymentIntentData {
	return &models.PaymentIntentData{
		ID:                   pi.ID,
		Amount:               pi.Amount,
		ApplicationFeeAmount: pi.ApplicationFeeAmount,
		Currency:             string(pi.Currency),
		Status:               string(pi.Status),
		ClientSecret:         pi.ClientSecret,
		Metadata:             pi.Metadata,
		ConnectedAccount:     connectedAccount,
	}
}

func accountData(acct *stripe.Account) *models.AccountData {
	data := &models.AccountData{
		ID:               acct.ID,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
		Metadata:         acct.Metadata,
	}
	if acct.Requirements != nil {
		data.Requirements.CurrentlyDue = acct.Requirements.CurrentlyDue
		data.Requirements.DisabledReason = string(acct.Requirements.DisabledReason)
	}
	return data
}
