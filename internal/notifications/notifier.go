package notifications

import "context"

type SendPasswordResetInput struct {
	Email     string
	Name      string
	ResetLink string
	ValidFor  string // human-readable validity window for the email copy
}

// Notifier is the outbound email collaborator. A send error means the
// user was not informed and must surface to the caller as a delivery
// failure; nothing is retried here.
type Notifier interface {
	SendPasswordReset(ctx context.Context, input SendPasswordResetInput) error
}
