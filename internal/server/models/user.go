package models

import "time"

// Role is the access level carried in access tokens.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleAdmin       Role = "admin"
)

// Status tracks the approval workflow. It only ever moves pending -> approved.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

// User is a registered participant or an admin.
//
// PasswordHash is empty until the account is approved. CredentialVersion is
// bumped every time a new hash is stored and keys credential deliveries.
type User struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Section           string    `json:"section"`
	Email             string    `json:"email"`
	RollNumber        string    `json:"rollNumber"`
	PhoneNumber       string    `json:"phoneNumber"`
	NeedSystem        bool      `json:"needSystem"`
	Role              Role      `json:"role"`
	Status            Status    `json:"status"`
	PasswordHash      string    `json:"-"`
	CredentialVersion int       `json:"-"`
	GithubLink        string    `json:"githubLink"`
	CreatedAt         time.Time `json:"createdAt"`
}

// HasCredential reports whether a password hash has been provisioned.
func (u *User) HasCredential() bool {
	return u.PasswordHash != ""
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
