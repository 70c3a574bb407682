package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the row model for the users table.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email             string    `bun:"email,notnull"`
	PasswordHash      string    `bun:"password_hash,notnull"`
	Subscription      string    `bun:"subscription,notnull,default:'starter'"`
	AvatarURL         *string   `bun:"avatar_url"`
	Verified          bool      `bun:"verified,notnull,default:false"`
	VerificationToken *string   `bun:"verification_token"`
	SessionToken      *string   `bun:"session_token"`
	CreatedAt         time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt         time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Contact is the row model for the contacts table. Every query against it is
// scoped by OwnerID.
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:c"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email"`
	Phone     string    `bun:"phone"`
	Favorite  bool      `bun:"favorite,notnull,default:false"`
	OwnerID   uuid.UUID `bun:"owner_id,notnull,type:uuid"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
