package user

import (
	"time"

	"github.com/google/uuid"
)

// Subscription tiers an account can hold.
const (
	SubscriptionStarter  = "starter"
	SubscriptionPro      = "pro"
	SubscriptionBusiness = "business"
)

// ValidSubscription reports whether s is one of the known tiers.
func ValidSubscription(s string) bool {
	switch s {
	case SubscriptionStarter, SubscriptionPro, SubscriptionBusiness:
		return true
	}
	return false
}

// ParseID parses an account id carried as a string, for example inside token
// claims. Callers use this instead of depending on the id format of a
// particular database.
func ParseID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// User is the account record. Credential and session fields are never
// serialized outward.
type User struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	Subscription      string    `json:"subscription"`
	AvatarURL         *string   `json:"avatarURL,omitempty"`
	Verified          bool      `json:"-"`
	VerificationToken *string   `json:"-"`
	SessionToken      *string   `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
