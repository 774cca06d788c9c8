// Package notify delivers freshly issued login credentials to participants,
// either directly through the Brevo transactional email API or through an
// asynq queue drained by an in-process worker.
package notify

import "context"

// Credential is the plaintext login secret handed out at approval time.
// Version matches models.User.CredentialVersion of the stored hash.
type Credential struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Version  int    `json:"version"`
}

// Notifier hands a credential to the participant.
type Notifier interface {
	Deliver(ctx context.Context, cred Credential) error
}
