package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"marketplace-api/internal/model"

	"github.com/google/uuid"
)

// SignatureHeader is the header carrying the provider's webhook signature.
const SignatureHeader = "Stripe-Signature"

// EventCheckoutCompleted signals a successfully paid checkout session.
const EventCheckoutCompleted = "checkout.session.completed"

// defaultTolerance bounds how old a signed timestamp may be before the
// payload is treated as a replay.
const defaultTolerance = 5 * time.Minute

// Event is a verified webhook notification from the provider.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// OrderID resolves the order referenced by the event's session metadata.
func (e *Event) OrderID() (uuid.UUID, bool) {
	raw, ok := e.Data.Object.Metadata["order_id"]
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// WebhookVerifier authenticates webhook payloads against the shared secret.
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookVerifier creates a verifier for the given shared secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{
		secret:    []byte(secret),
		tolerance: defaultTolerance,
		now:       time.Now,
	}
}

// ConstructEvent verifies the signature header against the raw payload and,
// only on success, parses the event. Nothing in the payload may be trusted
// before this returns.
func (v *WebhookVerifier) ConstructEvent(payload []byte, sigHeader string) (*Event, error) {
	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > v.tolerance || age < -v.tolerance {
		return nil, model.NewDomainError(model.ErrCodeInvalidSignature,
			"Webhook timestamp outside of tolerance")
	}

	expected := computeSignature(v.secret, timestamp, payload)
	verified := false
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, model.NewDomainError(model.ErrCodeInvalidSignature,
			"Webhook signature verification failed")
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidSignature,
			"Webhook payload is not valid JSON")
	}

	return &event, nil
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>[,v1=<hex>...]" into the
// signed timestamp and candidate signatures.
func parseSignatureHeader(header string) (int64, [][]byte, error) {
	if header == "" {
		return 0, nil, model.NewDomainError(model.ErrCodeInvalidSignature,
			"Missing webhook signature header")
	}

	var timestamp int64 = -1
	var signatures [][]byte

	for _, pair := range strings.Split(header, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "t":
			ts, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return 0, nil, model.NewDomainError(model.ErrCodeInvalidSignature,
					"Malformed webhook signature timestamp")
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(parts[1])
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, model.NewDomainError(model.ErrCodeInvalidSignature,
			"Malformed webhook signature header")
	}

	return timestamp, signatures, nil
}

// computeSignature is HMAC-SHA256 over "<timestamp>.<payload>".
func computeSignature(secret []byte, timestamp int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return mac.Sum(nil)
}
