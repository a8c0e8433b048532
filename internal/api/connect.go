package api

import (
	"net/http"
	"strings"

	"cardify-api/internal/response"
	"cardify-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

type onboardRequest struct {
	Email string `json:"email"`
}

// Onboard returns the next onboarding step for the caller: a dashboard
// login link when their connected account is fully set up, otherwise an
// onboarding link (creating the express account first when needed).
func (d *Deps) Onboard(c *gin.Context) {
	userID := c.GetString("user_id")

	var req onboardRequest
	_ = c.ShouldBindJSON(&req) // email is optional

	result, err := d.Accounts.Onboard(userID, req.Email)
	if err != nil {
		logging.Errorf("onboarding failed for user %s: %v", userID, err)
		response.Error(c, http.StatusInternalServerError, "onboarding_failed", "")
		return
	}
	response.OK(c, result)
}

// ConnectStatus reports the caller's connect state and the link for their
// next step.
func (d *Deps) ConnectStatus(c *gin.Context) {
	userID := c.GetString("user_id")

	result, err := d.Accounts.Status(userID)
	if err != nil {
		logging.Errorf("connect status failed for user %s: %v", userID, err)
		response.Error(c, http.StatusInternalServerError, "status_failed", "")
		return
	}
	response.OK(c, result)
}

// ConnectCallback is where the provider's onboarding flow sends the user
// back. The account id is saved on the caller's profile immediately; the
// authoritative verified flag still arrives via account.updated webhooks.
func (d *Deps) ConnectCallback(c *gin.Context) {
	userID := c.GetString("user_id")

	accountID := c.Query("account_id")
	if accountID == "" {
		response.Error(c, http.StatusBadRequest, "missing_account", "account_id query parameter is required")
		return
	}

	if err := d.Accounts.SaveCallbackAccount(userID, accountID); err != nil {
		logging.Errorf("saving callback account %s for user %s failed: %v", accountID, userID, err)
		response.Error(c, http.StatusInternalServerError, "callback_failed", "")
		return
	}
	response.OK(c, gin.H{"linked": true, "account": accountID})
}

type refreshRequest struct {
	Account string `json:"account"`
}

// RefreshAccountStatus re-pulls an account snapshot and recomputes the
// derived verified flag. Unauthenticated on purpose: it only ever moves the
// flag toward what the provider reports.
func (d *Deps) RefreshAccountStatus(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || !strings.HasPrefix(req.Account, "acct_") {
		response.Error(c, http.StatusBadRequest, "invalid_account_id", "account must be a connect account id")
		return
	}

	verified, err := d.Accounts.RefreshAccount(req.Account)
	if err != nil {
		logging.Errorf("account refresh failed for %s: %v", req.Account, err)
		response.Error(c, http.StatusInternalServerError, "refresh_failed", "")
		return
	}
	response.OK(c, gin.H{"verified": verified})
}
