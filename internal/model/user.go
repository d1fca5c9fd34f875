package model

import "time"

// Account roles carried in the JWT "role" claim.
const (
	RoleCustomer  = "CUSTOMER"
	RoleOrganizer = "ORGANIZER"
)

// User is an application account.  Email is unique and stored lower-cased.
//
// Fields:
//  ID           – uuid assigned at registration.
//  PasswordHash – bcrypt hash.
//  Role         – RoleCustomer or RoleOrganizer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RefreshToken is keyed by the SHA-256 hex digest of the raw token.  The
// plain token is never stored.
type RefreshToken struct {
	TokenHash string     `json:"tokenHash"`
	UserID    string     `json:"userId"`
	ExpiresAt time.Time  `json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// UserProfile is the editable public profile of a user.
type UserProfile struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}
