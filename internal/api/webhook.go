package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"cardify-api/internal/models"
	"cardify-api/internal/response"
	"cardify-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

// StripeWebhook is the reconciler's inbound endpoint. The acknowledgement is
// sent only after the handler completed: a handler failure becomes a 500 so
// the provider redelivers, and the idempotent write paths make that
// redelivery safe. Ack-before-work would silently drop events on a crash.
func (d *Deps) StripeWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		logging.Errorf("failed to read webhook body: %v", err)
		response.Error(c, http.StatusBadRequest, "bad_request", "failed to read request body")
		return
	}
	if len(body) == 0 {
		response.Error(c, http.StatusBadRequest, "bad_request", "empty request body")
		return
	}

	if !d.Verifier.Configured() {
		logging.Errorf("webhook received but no signing secret configured")
		response.Error(c, http.StatusInternalServerError, "server_misconfigured", "webhook secret missing")
		return
	}

	event, err := d.Verifier.VerifyEvent(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logging.Errorf("webhook signature rejected: %v", err)
		response.Error(c, http.StatusBadRequest, "bad_signature", "")
		return
	}

	ctx := c.Request.Context()

	if d.Cache.Seen(ctx, event.ID) {
		logging.Infof("event %s already processed, acknowledging replay", event.ID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := d.routeEvent(ctx, &event); err != nil {
		logging.Errorf("webhook handler failed for event %s (%s): %v", event.ID, event.Type, err)
		response.Error(c, http.StatusInternalServerError, "webhook_handler_failed", err.Error())
		return
	}

	d.Cache.MarkProcessed(ctx, event.ID)
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// routeEvent dispatches a verified event by type. Unrecognized types are a
// successful no-op: the provider retries anything that is not a 2xx, and
// retrying an event we will never handle helps no one.
func (d *Deps) routeEvent(ctx context.Context, event *stripe.Event) error {
	if event.Data == nil {
		logging.Warnf("event %s carries no data object, ignoring", event.ID)
		return nil
	}

	switch event.Type {
	case "checkout.session.completed":
		var session models.CheckoutSessionData
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			logging.Warnf("malformed checkout session in event %s: %v", event.ID, err)
			return nil
		}
		return d.Credits.HandleCheckoutCompleted(ctx, &session)

	case "payment_intent.succeeded":
		var pi models.PaymentIntentData
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			logging.Warnf("malformed payment intent in event %s: %v", event.ID, err)
			return nil
		}
		pi.ConnectedAccount = event.Account
		return d.Reconciler.HandlePaymentSucceeded(ctx, &pi)

	case "charge.succeeded":
		// Fallback for setups that only subscribe to charge events: resolve
		// the underlying intent and re-enter the payment-succeeded path.
		var charge models.ChargeData
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			logging.Warnf("malformed charge in event %s: %v", event.ID, err)
			return nil
		}
		if charge.PaymentIntent == "" {
			logging.Warnf("charge %s has no payment intent, ignoring", charge.ID)
			return nil
		}
		pi, err := d.Payments.GetIntent(charge.PaymentIntent, event.Account)
		if err != nil {
			return err
		}
		pi.ConnectedAccount = event.Account
		return d.Reconciler.HandlePaymentSucceeded(ctx, pi)

	case "account.updated", "capability.updated", "account.application.authorized":
		return d.handleAccountEvent(event)

	default:
		logging.Infof("ignoring event type %s", event.Type)
		return nil
	}
}

// handleAccountEvent feeds an account snapshot to the readiness tracker.
// account.updated events carry the snapshot directly; capability and
// application events carry a different object, so the account is resolved
// from the envelope (or the object's parent ref) and fetched fresh.
func (d *Deps) handleAccountEvent(event *stripe.Event) error {
	var acct models.AccountData
	if err := json.Unmarshal(event.Data.Raw, &acct); err != nil {
		logging.Warnf("malformed account object in event %s: %v", event.ID, err)
		return nil
	}

	if !strings.HasPrefix(acct.ID, "acct_") {
		ref := event.Account
		if ref == "" {
			var nested struct {
				Account string `json:"account"`
			}
			if err := json.Unmarshal(event.Data.Raw, &nested); err == nil {
				ref = nested.Account
			}
		}
		if ref == "" {
			logging.Warnf("account event %s carries no account reference, ignoring", event.ID)
			return nil
		}
		fresh, err := d.Payments.GetAccount(ref)
		if err != nil {
			return err
		}
		acct = *fresh
	}

	return d.Accounts.MarkSellerReadiness(&acct)
}
