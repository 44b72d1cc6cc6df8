package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"identity_sync_backend/internal/identity"

	svix "github.com/svix/svix-webhooks/go"
)

// ErrAuthentication is returned when a delivery's signature headers are missing,
// stale or do not match the body.
var ErrAuthentication = errors.New("webhook authentication failed")

// Header names svix expects; configured names are copied onto these before verifying.
const (
	svixIDHeader        = "svix-id"
	svixTimestampHeader = "svix-timestamp"
	svixSignatureHeader = "svix-signature"
)

// HeaderNames names the request headers carrying the delivery id, the unix timestamp
// and the signature list.
type HeaderNames struct {
	ID        string
	Timestamp string
	Signature string
}

// DefaultHeaderNames are the headers Clerk sends.
func DefaultHeaderNames() HeaderNames {
	return HeaderNames{ID: svixIDHeader, Timestamp: svixTimestampHeader, Signature: svixSignatureHeader}
}

// Envelope is a verified delivery.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	MessageID string          `json:"-"`
}

// SignatureVerifier authenticates raw webhook deliveries.
type SignatureVerifier interface {
	Verify(body []byte, h http.Header) (Envelope, error)
}

// Verifier checks svix-style HMAC-SHA256 signatures. It holds no per-request state.
type Verifier struct {
	wh      *svix.Webhook
	headers HeaderNames
}

// NewVerifier accepts the secret in the "whsec_<base64>" form the provider dashboard shows.
func NewVerifier(secret string, headers HeaderNames) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is empty")
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook secret: %w", err)
	}
	def := DefaultHeaderNames()
	if headers.ID == "" {
		headers.ID = def.ID
	}
	if headers.Timestamp == "" {
		headers.Timestamp = def.Timestamp
	}
	if headers.Signature == "" {
		headers.Signature = def.Signature
	}
	return &Verifier{wh: wh, headers: headers}, nil
}

// Verify authenticates body against the signature headers in h and decodes the envelope.
// An authentic body that is not a JSON envelope yields a *identity.MalformedPayloadError
// together with the MessageID, so callers can still record it.
func (v *Verifier) Verify(body []byte, h http.Header) (Envelope, error) {
	id := h.Get(v.headers.ID)
	ts := h.Get(v.headers.Timestamp)
	sig := h.Get(v.headers.Signature)
	if id == "" || ts == "" || sig == "" {
		return Envelope{}, fmt.Errorf("%w: missing signature headers", ErrAuthentication)
	}

	sh := http.Header{}
	sh.Set(svixIDHeader, id)
	sh.Set(svixTimestampHeader, ts)
	sh.Set(svixSignatureHeader, sig)
	if err := v.wh.Verify(body, sh); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	env := Envelope{MessageID: id}
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{MessageID: id}, &identity.MalformedPayloadError{Reason: "undecodable envelope", Err: err}
	}
	env.MessageID = id
	return env, nil
}
