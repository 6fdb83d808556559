package service

import (
	"bitwise74/account-api/internal/model"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCreate_ValidData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAdmin(t)

	u, err := f.svc.Create(ctx, UserCreate{Email: "Valid_User@Example.com", Password: "ValidPassword123!"})
	require.NoError(t, err)

	got, err := f.svc.GetByID(ctx, u.ID)
	require.NoError(t, err)

	assert.Equal(t, "valid_user@example.com", got.Email)
	assert.NotEqual(t, "ValidPassword123!", got.PasswordHash)
	assert.NotContains(t, got.PasswordHash, "ValidPassword123!")
	assert.NotEmpty(t, got.Nickname)
	assert.Equal(t, model.RoleAnonymous, got.Role)
	assert.False(t, got.EmailVerified)
	assert.False(t, got.IsLocked)
	assert.Zero(t, got.FailedLoginAttempts)
	require.NotNil(t, got.VerificationToken)

	assert.Equal(t, 1, f.mailer.count("verification"))
	assert.Equal(t, u.ID, f.mailer.sent[0].user.ID)
}

func TestCreate_FirstUserIsAdmin(t *testing.T) {
	f := newFixture(t)

	admin := f.seedAdmin(t)

	assert.True(t, admin.EmailVerified)
	assert.Nil(t, admin.VerificationToken)
	assert.Zero(t, f.mailer.count("verification"))

	second := f.createUser(t, "second@example.com")
	assert.Equal(t, model.RoleAnonymous, second.Role)
}

func TestCreate_EmailFailureKeepsUser(t *testing.T) {
	f := newFixture(t)
	f.seedAdmin(t)
	f.mailer.err = errMailDown

	u, err := f.svc.Create(context.Background(), UserCreate{Email: "still@example.com", Password: testPassword})
	require.NoError(t, err)

	_, err = f.svc.GetByID(context.Background(), u.ID)
	assert.NoError(t, err)
}

func TestCreate_InvalidData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   UserCreate
	}{
		{"everything invalid", UserCreate{Nickname: "", Email: "invalidemail", Password: "short"}},
		{"weak password", UserCreate{Email: "weakpass@example.com", Password: "weak"}},
		{"password missing classes", UserCreate{Email: "weakpass@example.com", Password: "alllowercase"}},
		{"missing email", UserCreate{Password: testPassword}},
		{"bad nickname", UserCreate{Email: "nick@example.com", Password: testPassword, Nickname: "has spaces"}},
		{"bad url", UserCreate{Email: "url@example.com", Password: testPassword, GithubProfileURL: ptr("not a url")}},
		{"long bio", UserCreate{Email: "bio@example.com", Password: testPassword, Bio: ptr(strings.Repeat("x", 501))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := f.svc.Create(ctx, tt.in)
			assert.Nil(t, u)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	n, err := f.svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreate_Duplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, UserCreate{Email: "dupe@example.com", Password: testPassword, Nickname: "taken_name"})
	require.NoError(t, err)

	u, err := f.svc.Create(ctx, UserCreate{Email: "DUPE@example.com", Password: testPassword})
	assert.Nil(t, u)
	assert.ErrorIs(t, err, ErrConflict)

	u, err = f.svc.Create(ctx, UserCreate{Email: "other@example.com", Password: testPassword, Nickname: "taken_name"})
	assert.Nil(t, u)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegisterUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.RegisterUser(ctx, UserCreate{Email: "register_valid_user@example.com", Password: "RegisterValid123!"})
	require.NoError(t, err)
	assert.Equal(t, "register_valid_user@example.com", u.Email)

	u, err = f.svc.RegisterUser(ctx, UserCreate{Email: "registerinvalidemail", Password: "short"})
	assert.Nil(t, u)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedAdmin(t)

	got, err := f.svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = f.svc.GetByNickname(ctx, u.Nickname)
	require.NoError(t, err)
	assert.Equal(t, u.Nickname, got.Nickname)

	got, err = f.svc.GetByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = f.svc.GetByID(ctx, "non-existent-id")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.GetByNickname(ctx, "non_existent_nickname")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.GetByEmail(ctx, "non_existent_email@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAdmin(t)
	user := f.createUser(t, "user@example.com")
	another := f.createUser(t, "another@example.com")

	t.Run("valid email", func(t *testing.T) {
		got, err := f.svc.Update(ctx, user.ID, UserUpdate{Email: ptr("updated_email@example.com")})
		require.NoError(t, err)
		assert.Equal(t, "updated_email@example.com", got.Email)
	})

	t.Run("profile fields", func(t *testing.T) {
		got, err := f.svc.Update(ctx, user.ID, UserUpdate{
			FirstName:        ptr("John"),
			GithubProfileURL: ptr("https://github.com/john"),
			Role:             ptr(model.RoleManager),
		})
		require.NoError(t, err)
		assert.Equal(t, "John", *got.FirstName)
		assert.Equal(t, "https://github.com/john", *got.GithubProfileURL)
		assert.Equal(t, model.RoleManager, got.Role)
		// Untouched fields survive
		assert.Equal(t, "updated_email@example.com", got.Email)
	})

	t.Run("duplicate nickname", func(t *testing.T) {
		got, err := f.svc.Update(ctx, user.ID, UserUpdate{Nickname: ptr(another.Nickname)})
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("own nickname is fine", func(t *testing.T) {
		current, err := f.svc.GetByID(ctx, user.ID)
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, user.ID, UserUpdate{Nickname: ptr(current.Nickname)})
		assert.NoError(t, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		got, err := f.svc.Update(ctx, user.ID, UserUpdate{Email: ptr("another@example.com")})
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("weak password", func(t *testing.T) {
		got, err := f.svc.Update(ctx, user.ID, UserUpdate{Password: ptr("weak")})
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("invalid email", func(t *testing.T) {
		got, err := f.svc.Update(ctx, user.ID, UserUpdate{Email: ptr("invalidemail")})
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := f.svc.Update(ctx, user.ID, UserUpdate{Role: ptr(model.Role("ROOT"))})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("nothing to update", func(t *testing.T) {
		_, err := f.svc.Update(ctx, user.ID, UserUpdate{})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := f.svc.Update(ctx, "non-existent-id", UserUpdate{Bio: ptr("hi")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejected update writes nothing", func(t *testing.T) {
		_, err := f.svc.Update(ctx, user.ID, UserUpdate{Bio: ptr("new bio"), Email: ptr("invalidemail")})
		require.ErrorIs(t, err, ErrValidation)

		got, err := f.svc.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Bio)
	})
}

func TestUpdate_PasswordIsRehashed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAdmin(t)
	u := f.verifiedUser(t, "rehash@example.com")

	_, err := f.svc.Update(ctx, u.ID, UserUpdate{Password: ptr("BrandNewPass123!")})
	require.NoError(t, err)

	_, err = f.svc.LoginUser(ctx, u.Email, testPassword)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, err = f.svc.LoginUser(ctx, u.Email, "BrandNewPass123!")
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedAdmin(t)

	ok, err := f.svc.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	for range 2 {
		ok, err = f.svc.Delete(ctx, "non-existent-id")
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestListUsers_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUsers(t, 50)

	page1, err := f.svc.ListUsers(ctx, 0, 10)
	require.NoError(t, err)
	page2, err := f.svc.ListUsers(ctx, 10, 10)
	require.NoError(t, err)

	require.Len(t, page1, 10)
	require.Len(t, page2, 10)
	assert.NotEqual(t, page1[0].ID, page2[0].ID)

	seen := map[string]bool{}
	for _, u := range page1 {
		seen[u.ID] = true
	}
	for _, u := range page2 {
		assert.False(t, seen[u.ID], "pages overlap")
	}

	// Same request, same page
	again, err := f.svc.ListUsers(ctx, 0, 10)
	require.NoError(t, err)
	for i := range page1 {
		assert.Equal(t, page1[i].ID, again[i].ID)
	}

	last, err := f.svc.ListUsers(ctx, 45, 10)
	require.NoError(t, err)
	assert.Len(t, last, 5)

	n, err := f.svc.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 50, n)
}

func TestListUsers_Limits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUsers(t, 12)

	users, err := f.svc.ListUsers(ctx, -5, 0)
	require.NoError(t, err)
	assert.Len(t, users, defaultPageSize)
}

func TestListUsers_StoreFailure(t *testing.T) {
	f := newFixture(t)

	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	users, err := f.svc.ListUsers(context.Background(), 0, 10)
	assert.ErrorIs(t, err, ErrStore)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestLoginUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAdmin(t)
	verified := f.verifiedUser(t, "verified@example.com")

	t.Run("success", func(t *testing.T) {
		u, err := f.svc.LoginUser(ctx, verified.Email, testPassword)
		require.NoError(t, err)
		assert.Equal(t, verified.ID, u.ID)
		assert.NotNil(t, u.LastLoginAt)
	})

	t.Run("unknown email", func(t *testing.T) {
		u, err := f.svc.LoginUser(ctx, "nonexistentuser@noway.com", "Password123!")
		assert.Nil(t, u)
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("incorrect password", func(t *testing.T) {
		u, err := f.svc.LoginUser(ctx, verified.Email, "IncorrectPassword!")
		assert.Nil(t, u)
		assert.ErrorIs(t, err, ErrAuthenticationFailed)

		got, err := f.svc.GetByID(ctx, verified.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.FailedLoginAttempts)
	})

	t.Run("success resets counter", func(t *testing.T) {
		_, err := f.svc.LoginUser(ctx, verified.Email, testPassword)
		require.NoError(t, err)

		got, err := f.svc.GetByID(ctx, verified.ID)
		require.NoError(t, err)
		assert.Zero(t, got.FailedLoginAttempts)
	})
}

func TestLoginUser_Unverified(t *testing.T) {
	f := newFixture(t)
	f.seedAdmin(t)
	u := f.createUser(t, "unverified@example.com")

	got, err := f.svc.LoginUser(context.Background(), u.Email, testPassword)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLoginUser_Locked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAdmin(t)
	u := f.verifiedUser(t, "locked@example.com")

	require.NoError(t, f.svc.LockAccount(ctx, u.ID))

	got, err := f.svc.LoginUser(ctx, u.Email, testPassword)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLoginUser_LocksAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAdmin(t)
	u := f.verifiedUser(t, "lockme@example.com")

	for i := range testMaxLoginAttempts {
		locked, err := f.svc.IsAccountLocked(ctx, u.Email)
		require.NoError(t, err)
		assert.False(t, locked, "locked too early, after %d failures", i)

		_, err = f.svc.LoginUser(ctx, u.Email, "wrongpassword")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	}

	locked, err := f.svc.IsAccountLocked(ctx, u.Email)
	require.NoError(t, err)
	assert.True(t, locked, "the account should be locked after the maximum number of failed login attempts")
	assert.Equal(t, 1, f.mailer.count("locked"))

	// The right password doesn't help anymore and the lock email isn't repeated
	_, err = f.svc.LoginUser(ctx, u.Email, testPassword)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Equal(t, 1, f.mailer.count("locked"))

	_, err = f.svc.IsAccountLocked(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnlockAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAdmin(t)
	u := f.verifiedUser(t, "unlock@example.com")

	for range testMaxLoginAttempts {
		f.svc.LoginUser(ctx, u.Email, "wrongpassword")
	}

	require.NoError(t, f.svc.UnlockAccount(ctx, u.ID))

	got, err := f.svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsLocked)
	assert.Zero(t, got.FailedLoginAttempts)

	_, err = f.svc.LoginUser(ctx, u.Email, testPassword)
	assert.NoError(t, err)

	assert.ErrorIs(t, f.svc.UnlockAccount(ctx, "non-existent-id"), ErrNotFound)
	assert.ErrorIs(t, f.svc.LockAccount(ctx, "non-existent-id"), ErrNotFound)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAdmin(t)
	u := f.verifiedUser(t, "reset@example.com")

	for range testMaxLoginAttempts {
		f.svc.LoginUser(ctx, u.Email, "wrongpassword")
	}

	require.NoError(t, f.svc.ResetPassword(ctx, u.ID, "NewPassword123!"))
	assert.Equal(t, 1, f.mailer.count("reset"))

	got, err := f.svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsLocked)
	assert.Zero(t, got.FailedLoginAttempts)

	_, err = f.svc.LoginUser(ctx, u.Email, "NewPassword123!")
	assert.NoError(t, err)

	assert.ErrorIs(t, f.svc.ResetPassword(ctx, u.ID, "weak"), ErrValidation)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "non-existent-id", "NewPassword123!"), ErrNotFound)
}

func TestVerifyEmailWithToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAdmin(t)
	u := f.createUser(t, "verify@example.com")
	token := *u.VerificationToken

	assert.ErrorIs(t, f.svc.VerifyEmailWithToken(ctx, u.ID, "wrong-token"), ErrInvalidToken)
	assert.ErrorIs(t, f.svc.VerifyEmailWithToken(ctx, u.ID, ""), ErrInvalidToken)
	assert.ErrorIs(t, f.svc.VerifyEmailWithToken(ctx, "non-existent-id", token), ErrNotFound)

	got, err := f.svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.EmailVerified)

	require.NoError(t, f.svc.VerifyEmailWithToken(ctx, u.ID, token))

	got, err = f.svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
	assert.Nil(t, got.VerificationToken)
	assert.Equal(t, model.RoleAuthenticated, got.Role)

	// Tokens are single use
	assert.ErrorIs(t, f.svc.VerifyEmailWithToken(ctx, u.ID, token), ErrInvalidToken)
}

func TestVerifyEmailWithToken_KeepsHigherRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAdmin(t)
	u := f.createUser(t, "manager@example.com")

	_, err := f.svc.Update(ctx, u.ID, UserUpdate{Role: ptr(model.RoleManager)})
	require.NoError(t, err)
	require.NoError(t, f.svc.VerifyEmailWithToken(ctx, u.ID, *u.VerificationToken))

	got, err := f.svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, got.Role)
}

func TestCleanupUnverified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedAdmin(t)
	fresh := f.createUser(t, "fresh@example.com")
	stale := f.createUser(t, "stale@example.com")

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, f.db.Model(&model.User{}).Where("id IN ?", []string{admin.ID, stale.ID}).Update("created_at", old).Error)

	n, err := CleanupUnverified(ctx, f.db, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = f.svc.GetByID(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Verified accounts and young accounts stay
	_, err = f.svc.GetByID(ctx, admin.ID)
	assert.NoError(t, err)
	_, err = f.svc.GetByID(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestAccountCleanup_RunsOnTicker(t *testing.T) {
	f := newFixture(t)
	f.seedAdmin(t)
	stale := f.createUser(t, "stale@example.com")
	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", stale.ID).Update("created_at", time.Now().Add(-time.Hour)).Error)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	AccountCleanup(ctx, 10*time.Millisecond, time.Minute, f.db)

	assert.Eventually(t, func() bool {
		_, err := f.svc.GetByID(context.Background(), stale.ID)
		return errors.Is(err, ErrNotFound)
	}, 2*time.Second, 20*time.Millisecond)
}
