package services

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ErrNoSecrets means the endpoint has no signing secret configured at all.
// The webhook cannot function in that state; callers surface it as a server
// error, not an authentication failure.
var ErrNoSecrets = errors.New("no webhook signing secret configured")

// SignatureVerifier authenticates inbound provider events against an
// ordered list of signing secrets: the platform tenant's secret first, then
// the marketplace connect tenant's. The first secret that validates wins;
// if none do, the request is rejected without ever parsing the body.
type SignatureVerifier struct {
	secrets []string
}

// NewSignatureVerifier creates a verifier over the given secrets, tried in
// order.
func NewSignatureVerifier(secrets []string) *SignatureVerifier {
	return &SignatureVerifier{secrets: secrets}
}

// Configured reports whether at least one signing secret is present.
func (v *SignatureVerifier) Configured() bool {
	return len(v.secrets) > 0
}

// VerifyEvent checks the signature header against each candidate secret and
// returns the parsed event from the first match. Pure validation, no side
// effects.
func (v *SignatureVerifier) VerifyEvent(body []byte, signatureHeader string) (stripe.Event, error) {
	if len(v.secrets) == 0 {
		return stripe.Event{}, ErrNoSecrets
	}

	var lastErr error
	for _, secret := range v.secrets {
		event, err := webhook.ConstructEventWithOptions(body, signatureHeader, secret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err == nil {
			return event, nil
		}
		lastErr = err
	}

	return stripe.Event{}, fmt.Errorf("signature matched no configured secret: %w", lastErr)
}
