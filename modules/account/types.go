// Package account implements passwordless accounts: users request a magic
// link by email, verifying it signs them in through the auth provider.
package account

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
