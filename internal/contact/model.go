package contact

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a contact record. It is only ever visible or mutable through
// queries scoped by its owner account id.
type Contact struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Favorite  bool      `json:"favorite"`
	OwnerID   uuid.UUID `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Update carries the optional fields of a partial update. Nil means "leave
// unchanged".
type Update struct {
	Name  *string
	Email *string
	Phone *string
}

// Empty reports whether the update would change nothing.
func (u Update) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil
}
