package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/dmitrijs2005/eventportal/internal/dbx"
	"github.com/dmitrijs2005/eventportal/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// SystemSlotsLockKey identifies the advisory lock that serialises
// need-system registrations.
const SystemSlotsLockKey int64 = 0x5_1075

const pgUniqueViolation = "23505"

const userColumns = `id, name, section, email, roll_number, phone_number, need_system,
		role, status, COALESCE(password_hash, ''), credential_version, github_link, created_at`

// PostgresRepository implements Repository over dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, name, section, email, roll_number, phone_number, need_system, role, status, created_at, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''))
		 RETURNING created_at`

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Section, user.Email, user.RollNumber, user.PhoneNumber,
		user.NeedSystem, string(user.Role), string(user.Status), user.CreatedAt, user.PasswordHash).Scan(&user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			switch pgErr.ConstraintName {
			case "users_roll_number_key":
				return nil, common.ErrDuplicateRollNumber
			default:
				return nil, common.ErrDuplicateEmail
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate locks the row until the surrounding transaction ends.
func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`
	return r.exists(ctx, query, email)
}

func (r *PostgresRepository) ExistsByRollNumber(ctx context.Context, rollNumber string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE upper(roll_number) = upper($1))`
	return r.exists(ctx, query, rollNumber)
}

func (r *PostgresRepository) CountNeedSystem(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE need_system`

	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// LockSystemSlots takes a transaction-scoped advisory lock. It must run inside
// a transaction; the lock is released on commit or rollback.
func (r *PostgresRepository) LockSystemSlots(ctx context.Context) error {
	query := `SELECT pg_advisory_xact_lock($1)`
	if _, err := r.db.ExecContext(ctx, query, SystemSlotsLockKey); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	return r.scanMany(ctx, query)
}

// ListApproved returns every approved account, admins included, oldest first.
func (r *PostgresRepository) ListApproved(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE status = 'approved' ORDER BY created_at`
	return r.scanMany(ctx, query)
}

func (r *PostgresRepository) MarkApproved(ctx context.Context, id string) error {
	query := `UPDATE users SET status = 'approved' WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

// CredentialVersion returns the stored credential version without loading the row.
func (r *PostgresRepository) CredentialVersion(ctx context.Context, id string) (int, error) {
	var v int
	err := r.db.QueryRowContext(ctx, `SELECT credential_version FROM users WHERE id = $1`, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, common.ErrorNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

// SetCredential stores a new password hash and returns the bumped credential version.
func (r *PostgresRepository) SetCredential(ctx context.Context, id string, passwordHash string) (int, error) {
	query :=
		`UPDATE users SET password_hash = $2, credential_version = credential_version + 1
		 WHERE id = $1
		 RETURNING credential_version`

	var version int
	if err := r.db.QueryRowContext(ctx, query, id, passwordHash).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return version, nil
}

func (r *PostgresRepository) UpdateGithubLink(ctx context.Context, id string, link string) (*models.User, error) {
	query := `UPDATE users SET github_link = $2 WHERE id = $1 RETURNING ` + userColumns
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, link))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var role, status string
	err := row.Scan(&u.ID, &u.Name, &u.Section, &u.Email, &u.RollNumber, &u.PhoneNumber, &u.NeedSystem,
		&role, &status, &u.PasswordHash, &u.CredentialVersion, &u.GithubLink, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.Status = models.Status(status)
	return u, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) scanMany(ctx context.Context, query string) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
