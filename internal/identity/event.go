package identity

// EventType is the provider's event name. It is deliberately open: values outside
// the known set are carried verbatim so new provider events degrade to a no-op.
type EventType string

const (
	UserCreated EventType = "user.created"
	UserUpdated EventType = "user.updated"
	UserDeleted EventType = "user.deleted"
)

// Known reports whether the projector has a branch for t.
func (t EventType) Known() bool {
	switch t {
	case UserCreated, UserUpdated, UserDeleted:
		return true
	}
	return false
}

func (t EventType) String() string {
	return string(t)
}

// EmailAddress is one entry of the provider's email list.
type EmailAddress struct {
	ID      string
	Address string
}

// PhoneNumber is one entry of the provider's phone list.
type PhoneNumber struct {
	ID     string
	Number string
}

// InboundEvent is the provider-neutral form of one lifecycle notification.
type InboundEvent struct {
	Type           EventType
	SubjectID      string
	Emails         []EmailAddress
	PrimaryEmailID string
	PhoneNumbers   []PhoneNumber
	PrimaryPhoneID string
	FirstName      string
	LastName       string
	ImageURL       string
	// Version orders deliveries for the same subject, in unix milliseconds.
	Version int64
}

// Email resolves PrimaryEmailID against Emails. Unresolved references yield "".
func (e InboundEvent) Email() string {
	if e.PrimaryEmailID == "" {
		return ""
	}
	for _, addr := range e.Emails {
		if addr.ID == e.PrimaryEmailID {
			return addr.Address
		}
	}
	return ""
}

// PhoneNumber resolves PrimaryPhoneID against PhoneNumbers. Unresolved references yield "".
func (e InboundEvent) PhoneNumber() string {
	if e.PrimaryPhoneID == "" {
		return ""
	}
	for _, p := range e.PhoneNumbers {
		if p.ID == e.PrimaryPhoneID {
			return p.Number
		}
	}
	return ""
}

// Record builds the projection row for this event.
func (e InboundEvent) Record() *User {
	return &User{
		ExternalID:      e.SubjectID,
		Email:           e.Email(),
		FirstName:       e.FirstName,
		LastName:        e.LastName,
		ImageURL:        e.ImageURL,
		PhoneNumber:     e.PhoneNumber(),
		SourceUpdatedAt: e.Version,
	}
}
