package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/dmitrijs2005/eventportal/internal/cryptox"
	"github.com/dmitrijs2005/eventportal/internal/server/models"
	"github.com/dmitrijs2005/eventportal/internal/server/repositories/repomanager"
	"github.com/mcnijman/go-emailaddress"
)

// MinAdminPasswordLength guards the bootstrap CLI against trivial passwords.
const MinAdminPasswordLength = 8

type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager) *AdminService {
	return &AdminService{db: db, repomanager: m}
}

// CreateAdmin stores an approved admin account that can log in immediately.
// Admins have no roll number of their own; the email doubles as one so the
// unique index stays satisfied.
func (s *AdminService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" || password == "" {
		return nil, common.ErrMissingField
	}
	if _, err := emailaddress.Parse(email); err != nil {
		return nil, common.ErrInvalidEmail
	}
	if len(password) < MinAdminPasswordLength {
		return nil, common.ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, internalErr(err)
	}

	user := &models.User{
		Name:         name,
		Section:      "admin",
		Email:        email,
		RollNumber:   strings.ToUpper(email),
		PhoneNumber:  "-",
		Role:         models.RoleAdmin,
		Status:       models.StatusApproved,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, mapCreateError(err)
	}
	return user, nil
}
