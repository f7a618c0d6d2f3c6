package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already in use")
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
)

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never expose hash in JSON
	Name         string     `json:"name"`
	ResetToken   *string    `json:"-"`
	ResetExpiry  *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Public is the projection handed back to clients: no id, no hash, no reset fields.
type Public struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Public() Public {
	return Public{Name: u.Name, Email: u.Email}
}

// ResetPending reports whether a password reset is pending at the given time.
// Both reset fields must be set and the expiry must still be in the future.
func (u User) ResetPending(now time.Time) bool {
	if u.ResetToken == nil || u.ResetExpiry == nil {
		return false
	}

	return now.Before(*u.ResetExpiry)
}
