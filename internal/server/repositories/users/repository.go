// Package users provides the persistence layer for participant and admin accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/eventportal/internal/server/models"
)

// Repository is the credential store for users. Lookups that find nothing
// return common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByRollNumber(ctx context.Context, rollNumber string) (bool, error)
	CountNeedSystem(ctx context.Context) (int, error)
	LockSystemSlots(ctx context.Context) error
	List(ctx context.Context) ([]*models.User, error)
	ListApproved(ctx context.Context) ([]*models.User, error)
	MarkApproved(ctx context.Context, id string) error
	SetCredential(ctx context.Context, id string, passwordHash string) (int, error)
	CredentialVersion(ctx context.Context, id string) (int, error)
	UpdateGithubLink(ctx context.Context, id string, link string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
