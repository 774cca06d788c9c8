package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/dmitrijs2005/eventportal/internal/cryptox"
	"github.com/dmitrijs2005/eventportal/internal/server/auth"
	"github.com/dmitrijs2005/eventportal/internal/server/config"
	"github.com/dmitrijs2005/eventportal/internal/server/models"
	"github.com/dmitrijs2005/eventportal/internal/server/repositories/repomanager"
)

type LoginResult struct {
	Token string
	Role  models.Role
}

type SystemCount struct {
	Used      int `json:"used"`
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

// UserService covers login and the per-account operations available after it.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	capacity                    int
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		capacity:                    cfg.SystemCapacity,
	}
}

func internalErr(err error) error {
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, internalErr(err)
	}

	if user.Status != models.StatusApproved {
		return nil, common.ErrNotApproved
	}
	if !user.HasCredential() {
		return nil, common.ErrNoCredential
	}
	if !cryptox.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, internalErr(err)
	}

	return &LoginResult{Token: token, Role: user.Role}, nil
}

// Dashboard returns the caller's own record.
func (s *UserService) Dashboard(ctx context.Context, p auth.Principal) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, internalErr(err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, p auth.Principal) ([]*models.User, error) {
	if !p.IsAdmin() {
		return nil, common.ErrForbidden
	}

	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, internalErr(err)
	}
	return list, nil
}

// SubmitGithubLink overwrites the caller's project link.
func (s *UserService) SubmitGithubLink(ctx context.Context, p auth.Principal, link string) (*models.User, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, common.ErrMissingLink
	}

	user, err := s.repomanager.Users(s.db).UpdateGithubLink(ctx, p.UserID, link)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, internalErr(err)
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, p auth.Principal, id string) error {
	if !p.IsAdmin() {
		return common.ErrForbidden
	}

	err := s.repomanager.Users(s.db).Delete(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return internalErr(err)
	}
	return nil
}

func (s *UserService) SystemCount(ctx context.Context, p auth.Principal) (*SystemCount, error) {
	if !p.IsAdmin() {
		return nil, common.ErrForbidden
	}

	used, err := s.repomanager.Users(s.db).CountNeedSystem(ctx)
	if err != nil {
		return nil, internalErr(err)
	}

	return &SystemCount{Used: used, Total: s.capacity, Remaining: max(s.capacity-used, 0)}, nil
}
