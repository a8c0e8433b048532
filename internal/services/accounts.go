package services

import (
	"fmt"

	"cardify-api/internal/database"
	"cardify-api/internal/models"
	"cardify-api/pkg/logging"
)

// AccountService tracks seller readiness and drives connect onboarding.
// Readiness is always recomputed from the latest account snapshot; it is
// never sticky.
type AccountService struct {
	db       *database.DB
	payments PaymentAPI
	siteURL  string
}

func NewAccountService(db *database.DB, payments PaymentAPI, siteURL string) *AccountService {
	return &AccountService{db: db, payments: payments, siteURL: siteURL}
}

// MarkSellerReadiness persists the derived verified flag for the profile
// linked to the account. When no profile references the account yet but the
// account's own metadata carries our user id, the link is created on the
// spot. Self-healing for accounts that predate their profile row.
func (s *AccountService) MarkSellerReadiness(acct *models.AccountData) error {
	verified := acct.Verified()

	rows, err := s.db.SetVerifiedByAccountRef(acct.ID, verified)
	if err != nil {
		return fmt.Errorf("update readiness for account %s: %w", acct.ID, err)
	}
	if rows > 0 {
		logging.Infof("seller readiness updated - account: %s, verified: %t", acct.ID, verified)
		return nil
	}

	userID := ""
	if acct.Metadata != nil {
		userID = acct.Metadata["user_id"]
	}
	if userID == "" {
		logging.Warnf("no profile references account %s and event carries no user id", acct.ID)
		return nil
	}

	if err := s.db.UpsertProfileAccount(userID, "", acct.ID, verified); err != nil {
		return fmt.Errorf("link account %s to user %s: %w", acct.ID, userID, err)
	}
	logging.Infof("linked account %s to user %s via metadata, verified: %t", acct.ID, userID, verified)
	return nil
}

// RefreshAccount pulls a fresh snapshot from the provider, recomputes
// readiness and persists it.
func (s *AccountService) RefreshAccount(accountRef string) (bool, error) {
	acct, err := s.payments.GetAccount(accountRef)
	if err != nil {
		return false, err
	}
	verified := acct.Verified()
	if _, err := s.db.SetVerifiedByAccountRef(accountRef, verified); err != nil {
		return false, fmt.Errorf("persist readiness for account %s: %w", accountRef, err)
	}
	return verified, nil
}

// OnboardResult is what the onboarding flow hands back to the client.
type OnboardResult struct {
	AlreadyOnboarded bool   `json:"already_onboarded"`
	URL              string `json:"url,omitempty"`
	DashboardURL     string `json:"dashboard_url,omitempty"`
}

// Onboard returns the next step for a user setting up payouts: a dashboard
// login link when the saved account is fully onboarded, otherwise an
// onboarding link, creating a fresh express account first when none is
// saved or the saved id went stale.
func (s *AccountService) Onboard(userID, email string) (*OnboardResult, error) {
	profile, err := s.db.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	accountID := ""
	if profile != nil {
		accountID = profile.StripeAccountID
	}

	if accountID != "" {
		acct, err := s.payments.GetAccount(accountID)
		if err != nil {
			// Saved id is stale; fall through and create a fresh account.
			logging.Warnf("saved account %s for user %s not retrievable: %v", accountID, userID, err)
			accountID = ""
		} else {
			needsOnboarding := len(acct.Requirements.CurrentlyDue) > 0 ||
				!acct.ChargesEnabled || !acct.PayoutsEnabled
			if !needsOnboarding {
				url, err := s.payments.LoginLink(accountID)
				if err != nil {
					return nil, err
				}
				return &OnboardResult{AlreadyOnboarded: true, DashboardURL: url}, nil
			}
			url, err := s.onboardingLink(accountID)
			if err != nil {
				return nil, err
			}
			return &OnboardResult{URL: url}, nil
		}
	}

	accountID, err = s.payments.CreateExpressAccount(userID, email)
	if err != nil {
		return nil, err
	}
	if err := s.db.UpsertProfileAccount(userID, email, accountID, false); err != nil {
		return nil, fmt.Errorf("store account %s on profile %s: %w", accountID, userID, err)
	}

	url, err := s.onboardingLink(accountID)
	if err != nil {
		return nil, err
	}
	return &OnboardResult{URL: url}, nil
}

// StatusResult describes a user's connect state.
type StatusResult struct {
	Connected          bool   `json:"connected"`
	OnboardingComplete bool   `json:"onboarding_complete,omitempty"`
	OnboardingURL      string `json:"onboarding_url,omitempty"`
	LoginURL           string `json:"login_url,omitempty"`
}

// Status reports whether the user has a connect account and what the next
// step is.
func (s *AccountService) Status(userID string) (*StatusResult, error) {
	profile, err := s.db.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.StripeAccountID == "" {
		return &StatusResult{Connected: false}, nil
	}

	acct, err := s.payments.GetAccount(profile.StripeAccountID)
	if err != nil {
		return nil, err
	}

	if !acct.DetailsSubmitted {
		url, err := s.onboardingLink(profile.StripeAccountID)
		if err != nil {
			return nil, err
		}
		return &StatusResult{Connected: true, OnboardingURL: url}, nil
	}

	url, err := s.payments.LoginLink(profile.StripeAccountID)
	if err != nil {
		return nil, err
	}
	return &StatusResult{Connected: true, OnboardingComplete: true, LoginURL: url}, nil
}

// SaveCallbackAccount stores the account id the provider's onboarding flow
// returned with, verifying it best-effort: when the snapshot cannot be
// fetched the link is still saved unverified and a later refresh or webhook
// settles it.
func (s *AccountService) SaveCallbackAccount(userID, accountID string) error {
	verified := false
	if acct, err := s.payments.GetAccount(accountID); err == nil {
		verified = acct.Verified()
	}
	return s.db.UpsertProfileAccount(userID, "", accountID, verified)
}

func (s *AccountService) onboardingLink(accountID string) (string, error) {
	profileURL := s.siteURL + "/profile"
	return s.payments.OnboardingLink(accountID, profileURL, profileURL)
}
