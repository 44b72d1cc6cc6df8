package identity

import (
	"bytes"
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Result is the normalizer's verdict. Skip means the event type has no projection
// branch and must be acknowledged without touching the store.
type Result struct {
	Event InboundEvent
	Skip  bool
}

// userPayload mirrors the user object in Clerk's webhook "data" field.
type userPayload struct {
	ID                    string         `json:"id" validate:"required"`
	EmailAddresses        []emailPayload `json:"email_addresses"`
	PrimaryEmailAddressID *string        `json:"primary_email_address_id"`
	PhoneNumbers          []phonePayload `json:"phone_numbers"`
	PrimaryPhoneNumberID  *string        `json:"primary_phone_number_id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	ImageURL              *string        `json:"image_url"`
	UpdatedAt             int64          `json:"updated_at"`
}

type emailPayload struct {
	ID           string  `json:"id"`
	EmailAddress *string `json:"email_address"`
}

type phonePayload struct {
	ID          string  `json:"id"`
	PhoneNumber *string `json:"phone_number"`
}

// Normalize converts a verified provider payload into an InboundEvent.
// envelopeTS is the delivery timestamp in unix milliseconds; it versions deletes and
// stands in for updated_at when the payload has none.
func Normalize(eventType string, data json.RawMessage, envelopeTS int64) (Result, error) {
	t := EventType(eventType)
	if !t.Known() {
		return Result{Event: InboundEvent{Type: t}, Skip: true}, nil
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Result{}, &MalformedPayloadError{EventType: t, Reason: "missing data object"}
	}

	var p userPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return Result{}, &MalformedPayloadError{EventType: t, Reason: "undecodable data object", Err: err}
	}
	if err := validate.Struct(p); err != nil {
		return Result{}, &MalformedPayloadError{EventType: t, Reason: "missing subject id", Err: err}
	}

	ev := InboundEvent{
		Type:           t,
		SubjectID:      p.ID,
		PrimaryEmailID: deref(p.PrimaryEmailAddressID),
		PrimaryPhoneID: deref(p.PrimaryPhoneNumberID),
		FirstName:      deref(p.FirstName),
		LastName:       deref(p.LastName),
		ImageURL:       deref(p.ImageURL),
		Version:        p.UpdatedAt,
	}
	for _, e := range p.EmailAddresses {
		ev.Emails = append(ev.Emails, EmailAddress{ID: e.ID, Address: deref(e.EmailAddress)})
	}
	for _, ph := range p.PhoneNumbers {
		ev.PhoneNumbers = append(ev.PhoneNumbers, PhoneNumber{ID: ph.ID, Number: deref(ph.PhoneNumber)})
	}

	if t == UserDeleted || ev.Version == 0 {
		ev.Version = envelopeTS
	}
	return Result{Event: ev}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
