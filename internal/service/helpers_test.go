package service

import (
	"bitwise74/account-api/config"
	"bitwise74/account-api/db"
	"bitwise74/account-api/internal/model"
	"bitwise74/account-api/pkg/security"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "MySuperPassword$1234"

const testMaxLoginAttempts = 3

type sentMail struct {
	kind string
	user model.User
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) record(kind string, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.sent = append(f.sent, sentMail{kind: kind, user: *u})
	return nil
}

func (f *fakeMailer) SendVerificationEmail(_ context.Context, u *model.User) error {
	return f.record("verification", u)
}

func (f *fakeMailer) SendAccountLockedEmail(_ context.Context, u *model.User, _ int) error {
	return f.record("locked", u)
}

func (f *fakeMailer) SendPasswordResetEmail(_ context.Context, u *model.User) error {
	return f.record("reset", u)
}

func (f *fakeMailer) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, m := range f.sent {
		if m.kind == kind {
			n++
		}
	}

	return n
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return conn
}

func cheapHasher() *security.ArgonHash {
	return &security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

type fixture struct {
	db     *gorm.DB
	mailer *fakeMailer
	svc    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn := newTestDB(t)
	m := &fakeMailer{}

	return &fixture{
		db:     conn,
		mailer: m,
		svc: NewUserService(conn, cheapHasher(), m, config.Security{
			MaxLoginAttempts:  testMaxLoginAttempts,
			PasswordMinLength: 8,
		}),
	}
}

// seedAdmin takes the first-user slot so later users go through verification
func (f *fixture) seedAdmin(t *testing.T) *model.User {
	t.Helper()

	u, err := f.svc.Create(context.Background(), UserCreate{
		Email:    "admin@example.com",
		Password: "AdminPassword123!",
		Nickname: "admin",
	})
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, u.Role)

	return u
}

func (f *fixture) createUser(t *testing.T, email string) *model.User {
	t.Helper()

	u, err := f.svc.Create(context.Background(), UserCreate{Email: email, Password: testPassword})
	require.NoError(t, err)

	return u
}

func (f *fixture) verifiedUser(t *testing.T, email string) *model.User {
	t.Helper()

	u := f.createUser(t, email)
	require.NotNil(t, u.VerificationToken)
	require.NoError(t, f.svc.VerifyEmailWithToken(context.Background(), u.ID, *u.VerificationToken))

	u, err := f.svc.GetByID(context.Background(), u.ID)
	require.NoError(t, err)

	return u
}

func (f *fixture) seedUsers(t *testing.T, n int) []*model.User {
	t.Helper()

	users := make([]*model.User, 0, n)
	for i := range n {
		users = append(users, f.createUser(t, fmt.Sprintf("user%d@example.com", i)))
	}

	return users
}

var errMailDown = errors.New("mail server down")
