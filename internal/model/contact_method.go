package model

import "time"

// ContactMethodType is the kind of contact method.
type ContactMethodType string

const (
	// ContactEmail is an email address.
	ContactEmail ContactMethodType = "email"
	// ContactPhone is a phone number.
	ContactPhone ContactMethodType = "phone"
)

// ParseContactMethodType converts a stored string into a ContactMethodType.
func ParseContactMethodType(s string) (ContactMethodType, bool) {
	switch ContactMethodType(s) {
	case ContactEmail, ContactPhone:
		return ContactMethodType(s), true
	default:
		return "", false
	}
}

// ContactMethod is a phone or email belonging to a prospect. Values are
// stored as entered; matching always goes through NormalizeEmail or
// NormalizePhone. Suspect methods are flagged, never silently deleted.
type ContactMethod struct {
	CreatedAt       time.Time
	VerifiedDate    *time.Time
	Type            ContactMethodType
	Value           string
	Label           string
	Source          string
	ID              int64
	ProspectID      int64
	ConfidenceScore int
	IsPrimary       bool
	IsVerified      bool
	IsSuspect       bool
}

// NormalizedValue returns the dedup key for this method.
func (m *ContactMethod) NormalizedValue() string {
	if m.Type == ContactPhone {
		return NormalizePhone(m.Value)
	}
	return NormalizeEmail(m.Value)
}
