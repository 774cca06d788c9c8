package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/dmitrijs2005/eventportal/internal/dbx"
	"github.com/dmitrijs2005/eventportal/internal/server/config"
	"github.com/dmitrijs2005/eventportal/internal/server/models"
	"github.com/dmitrijs2005/eventportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eventportal/internal/timex"
	"github.com/mcnijman/go-emailaddress"
)

// RollPolicy describes eligible roll numbers: Prefix followed by digits whose
// value lies in [Min, Max].
type RollPolicy struct {
	Prefix string
	Min    int
	Max    int
}

// Allows reports whether roll satisfies the policy. Comparison is case-insensitive.
func (p RollPolicy) Allows(roll string) bool {
	roll = strings.ToUpper(strings.TrimSpace(roll))
	prefix := strings.ToUpper(p.Prefix)
	if !strings.HasPrefix(roll, prefix) {
		return false
	}

	suffix := roll[len(prefix):]
	if suffix == "" {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}

	n, err := strconv.Atoi(suffix)
	if err != nil {
		return false
	}
	return n >= p.Min && n <= p.Max
}

type RegisterInput struct {
	Name        string
	Section     string
	Email       string
	RollNumber  string
	PhoneNumber string
	NeedSystem  bool
}

type RegistrationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	capacity    int
	cutoffHour  int
	location    *time.Location
	roll        RollPolicy
}

func NewRegistrationService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) (*RegistrationService, error) {
	loc, err := timex.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}

	return &RegistrationService{
		db:          db,
		repomanager: m,
		capacity:    cfg.SystemCapacity,
		cutoffHour:  cfg.CutoffHour,
		location:    loc,
		roll:        RollPolicy{Prefix: cfg.RollPrefix, Min: cfg.RollMin, Max: cfg.RollMax},
	}, nil
}

// WindowOpen reports whether registrations are accepted at now.
func (s *RegistrationService) WindowOpen(now time.Time) bool {
	if s.cutoffHour < 0 {
		return true
	}
	return now.In(s.location).Hour() < s.cutoffHour
}

func normalizeInput(in RegisterInput) RegisterInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Section = strings.TrimSpace(in.Section)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.RollNumber = strings.ToUpper(strings.TrimSpace(in.RollNumber))
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	return in
}

// Register creates a pending participant. Checks run in a fixed order and the
// first failing one decides the error.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput, now time.Time) (*models.User, error) {

	in = normalizeInput(in)

	if in.Name == "" || in.Section == "" || in.Email == "" || in.RollNumber == "" || in.PhoneNumber == "" {
		return nil, common.ErrMissingField
	}
	if _, err := emailaddress.Parse(in.Email); err != nil {
		return nil, common.ErrInvalidEmail
	}

	if !s.WindowOpen(now) {
		return nil, common.ErrWindowClosed
	}

	if !s.roll.Allows(in.RollNumber) {
		return nil, common.ErrInvalidRollNumber
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if exists {
		return nil, common.ErrDuplicateEmail
	}

	exists, err = repo.ExistsByRollNumber(ctx, in.RollNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if exists {
		return nil, common.ErrDuplicateRollNumber
	}

	user := &models.User{
		Name:        in.Name,
		Section:     in.Section,
		Email:       in.Email,
		RollNumber:  in.RollNumber,
		PhoneNumber: in.PhoneNumber,
		NeedSystem:  in.NeedSystem,
		Role:        models.RoleParticipant,
		Status:      models.StatusPending,
		CreatedAt:   now.UTC(),
	}

	if !in.NeedSystem {
		user, err = repo.Create(ctx, user)
		if err != nil {
			return nil, mapCreateError(err)
		}
		return user, nil
	}

	// The advisory lock serialises concurrent need-system registrations so
	// the count and the insert see the same pool.
	created, err := dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		txRepo := s.repomanager.Users(tx)

		if err := txRepo.LockSystemSlots(ctx); err != nil {
			return nil, err
		}

		used, err := txRepo.CountNeedSystem(ctx)
		if err != nil {
			return nil, err
		}
		if used >= s.capacity {
			return nil, common.ErrCapacityExceeded
		}

		return txRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, mapCreateError(err)
	}

	return created, nil
}

func mapCreateError(err error) error {
	switch {
	case errors.Is(err, common.ErrDuplicateEmail),
		errors.Is(err, common.ErrDuplicateRollNumber),
		errors.Is(err, common.ErrCapacityExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
}
