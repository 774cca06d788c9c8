package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/dmitrijs2005/eventportal/internal/cryptox"
	"github.com/dmitrijs2005/eventportal/internal/dbx"
	"github.com/dmitrijs2005/eventportal/internal/server/auth"
	"github.com/dmitrijs2005/eventportal/internal/server/models"
	"github.com/dmitrijs2005/eventportal/internal/server/notify"
	"github.com/dmitrijs2005/eventportal/internal/server/repositories/notifications"
	"github.com/dmitrijs2005/eventportal/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	cryptox.HashCost = bcrypt.MinCost
}

var (
	adminPrincipal       = auth.Principal{UserID: "admin-1", Role: models.RoleAdmin}
	participantPrincipal = auth.Principal{UserID: "u-1", Role: models.RoleParticipant}
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// memUsers is an in-memory users.Repository. Transactions are not modelled;
// the fake writes straight through regardless of the DBTX it was vended for.
type memUsers struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	nextID int

	err              error
	setCredentialErr map[string]error
	lockCalls        int
	calls            []repoCall
}

// repoCall records a capacity-relevant call and the handle the repository
// was bound to when it was made.
type repoCall struct {
	op string
	db dbx.DBTX
}

func (m *memUsers) record(op string, db dbx.DBTX) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, repoCall{op: op, db: db})
}

// boundUsers is the memUsers view handed out by fakeRepoManager.Users; it
// remembers which handle it was vended for.
type boundUsers struct {
	*memUsers
	db dbx.DBTX
}

func (b *boundUsers) LockSystemSlots(ctx context.Context) error {
	b.record("lock", b.db)
	return b.memUsers.LockSystemSlots(ctx)
}

func (b *boundUsers) CountNeedSystem(ctx context.Context) (int, error) {
	b.record("count", b.db)
	return b.memUsers.CountNeedSystem(ctx)
}

func (b *boundUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	b.record("create", b.db)
	return b.memUsers.Create(ctx, u)
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}, setCredentialErr: map[string]error{}}
}

func (m *memUsers) put(u models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		m.nextID++
		u.ID = "gen-" + string(rune('a'+m.nextID))
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Date(2025, 1, 1, 0, 0, len(m.byID), 0, time.UTC)
	}
	m.byID[u.ID] = &u
	c := u
	return &c
}

func (m *memUsers) get(id string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil
	}
	c := *u
	return &c
}

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	for _, x := range m.byID {
		if strings.EqualFold(x.Email, u.Email) {
			m.mu.Unlock()
			return nil, common.ErrDuplicateEmail
		}
		if strings.EqualFold(x.RollNumber, u.RollNumber) {
			m.mu.Unlock()
			return nil, common.ErrDuplicateRollNumber
		}
	}
	m.mu.Unlock()
	return m.put(*u), nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u := m.get(id); u != nil {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return m.GetByID(ctx, id)
}

func (m *memUsers) find(match func(*models.User) bool) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if match(u) {
			c := *u
			return &c
		}
	}
	return nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u := m.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) }); u != nil {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) }) != nil, nil
}

func (m *memUsers) ExistsByRollNumber(ctx context.Context, roll string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.find(func(u *models.User) bool { return strings.EqualFold(u.RollNumber, roll) }) != nil, nil
}

func (m *memUsers) CountNeedSystem(ctx context.Context) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.byID {
		if u.NeedSystem {
			n++
		}
	}
	return n, nil
}

func (m *memUsers) LockSystemSlots(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockCalls++
	return nil
}

func (m *memUsers) sorted(filter func(*models.User) bool, newestFirst bool) []*models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.User, 0, len(m.byID))
	for _, u := range m.byID {
		if filter(u) {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *memUsers) List(ctx context.Context) ([]*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sorted(func(*models.User) bool { return true }, true), nil
}

func (m *memUsers) ListApproved(ctx context.Context) ([]*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sorted(func(u *models.User) bool { return u.Status == models.StatusApproved }, false), nil
}

func (m *memUsers) MarkApproved(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Status = models.StatusApproved
	return nil
}

func (m *memUsers) SetCredential(ctx context.Context, id string, hash string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setCredentialErr[id]; err != nil {
		return 0, err
	}
	u, ok := m.byID[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	u.PasswordHash = hash
	u.CredentialVersion++
	return u.CredentialVersion, nil
}

func (m *memUsers) CredentialVersion(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return u.CredentialVersion, nil
}

func (m *memUsers) UpdateGithubLink(ctx context.Context, id string, link string) (*models.User, error) {
	m.mu.Lock()
	u, ok := m.byID[id]
	if ok {
		u.GithubLink = link
	}
	m.mu.Unlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	return m.get(id), nil
}

func (m *memUsers) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.byID, id)
	return nil
}

type memNotifications struct {
	mu    sync.Mutex
	items []*models.Notification
	err   error
}

func (m *memNotifications) Create(ctx context.Context, message string) (*models.Notification, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := &models.Notification{
		ID:        "n-" + string(rune('a'+len(m.items))),
		Message:   message,
		CreatedAt: time.Date(2025, 1, 1, 0, len(m.items), 0, 0, time.UTC),
	}
	m.items = append(m.items, n)
	return n, nil
}

func (m *memNotifications) List(ctx context.Context) ([]*models.Notification, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Notification, 0, len(m.items))
	for i := len(m.items) - 1; i >= 0; i-- {
		out = append(out, m.items[i])
	}
	return out, nil
}

type fakeRepoManager struct {
	users         *memUsers
	notifications *memNotifications
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{users: newMemUsers(), notifications: &memNotifications{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository         { return &boundUsers{m.users, db} }
func (m *fakeRepoManager) Notifications(db dbx.DBTX) notifications.Repository {
	return m.notifications
}

type fakeNotifier struct {
	mu      sync.Mutex
	got     []notify.Credential
	failFor map[string]bool
}

func (f *fakeNotifier) Deliver(ctx context.Context, cred notify.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, cred)
	if f.failFor[cred.UserID] {
		return common.ErrDeliveryFailed
	}
	return nil
}

var errBoom = errors.New("boom")
