package service

import (
	"bitwise74/account-api/config"
	"bitwise74/account-api/internal/metrics"
	"bitwise74/account-api/internal/model"
	"bitwise74/account-api/pkg/security"
	"bitwise74/account-api/pkg/util"
	"bitwise74/account-api/pkg/validators"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	nicknameAttempts = 5
)

// PasswordHasher hashes and verifies passwords. security.ArgonHash implements it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// Mailer sends the emails triggered by account transitions. EmailService
// implements it.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, u *model.User) error
	SendAccountLockedEmail(ctx context.Context, u *model.User, maxAttempts int) error
	SendPasswordResetEmail(ctx context.Context, u *model.User) error
}

type UserCreate struct {
	Email              string  `json:"email"`
	Password           string  `json:"password"`
	Nickname           string  `json:"nickname" validate:"omitempty,nickname"`
	FirstName          *string `json:"first_name" validate:"omitempty,max=100"`
	LastName           *string `json:"last_name" validate:"omitempty,max=100"`
	Bio                *string `json:"bio" validate:"omitempty,max=500"`
	ProfilePictureURL  *string `json:"profile_picture_url" validate:"omitempty,url"`
	LinkedinProfileURL *string `json:"linkedin_profile_url" validate:"omitempty,url"`
	GithubProfileURL   *string `json:"github_profile_url" validate:"omitempty,url"`
}

// UserUpdate holds a partial update, nil fields are left as they are
type UserUpdate struct {
	Email              *string     `json:"email"`
	Nickname           *string     `json:"nickname"`
	Password           *string     `json:"password"`
	FirstName          *string     `json:"first_name" validate:"omitempty,max=100"`
	LastName           *string     `json:"last_name" validate:"omitempty,max=100"`
	Bio                *string     `json:"bio" validate:"omitempty,max=500"`
	ProfilePictureURL  *string     `json:"profile_picture_url" validate:"omitempty,url"`
	LinkedinProfileURL *string     `json:"linkedin_profile_url" validate:"omitempty,url"`
	GithubProfileURL   *string     `json:"github_profile_url" validate:"omitempty,url"`
	Role               *model.Role `json:"role" validate:"omitempty,oneof=ANONYMOUS AUTHENTICATED MANAGER ADMIN"`
}

func (u *UserUpdate) empty() bool {
	return u.Email == nil && u.Nickname == nil && u.Password == nil &&
		u.FirstName == nil && u.LastName == nil && u.Bio == nil &&
		u.ProfilePictureURL == nil && u.LinkedinProfileURL == nil &&
		u.GithubProfileURL == nil && u.Role == nil
}

// UserService owns the account state machine: registration, verification,
// login with lockout and password changes.
type UserService struct {
	db               *gorm.DB
	hasher           PasswordHasher
	mailer           Mailer
	policy           validators.PasswordPolicy
	maxLoginAttempts int
}

func NewUserService(db *gorm.DB, hasher PasswordHasher, mailer Mailer, c config.Security) *UserService {
	return &UserService{
		db:               db,
		hasher:           hasher,
		mailer:           mailer,
		policy:           validators.DefaultPasswordPolicy(c.PasswordMinLength),
		maxLoginAttempts: c.MaxLoginAttempts,
	}
}

// MaxLoginAttempts is the number of consecutive failed logins that locks an account
func (s *UserService) MaxLoginAttempts() int {
	return s.maxLoginAttempts
}

// Create validates in and stores a new account. The first account ever
// created becomes an admin and skips verification, every other account gets
// a verification token and email. A failed email does not undo the account.
func (s *UserService) Create(ctx context.Context, in UserCreate) (*model.User, error) {
	if err := validators.Struct(in); err != nil {
		return nil, validationErr(err)
	}

	email := validators.NormalizeEmail(in.Email)
	if err := validators.EmailValidator(email); err != nil {
		return nil, validationErr(err)
	}

	if err := s.policy.PasswordValidator(in.Password); err != nil {
		return nil, validationErr(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		zap.L().Error("Failed to hash password", zap.Error(err))
		return nil, storeErr("hash password", err)
	}

	token, err := security.MakeVerificationToken()
	if err != nil {
		zap.L().Error("Failed to generate verification token", zap.Error(err))
		return nil, storeErr("generate token", err)
	}

	user := &model.User{
		ID:                 uuid.NewString(),
		Email:              email,
		Nickname:           in.Nickname,
		FirstName:          in.FirstName,
		LastName:           in.LastName,
		Bio:                in.Bio,
		ProfilePictureURL:  in.ProfilePictureURL,
		LinkedinProfileURL: in.LinkedinProfileURL,
		GithubProfileURL:   in.GithubProfileURL,
		PasswordHash:       hash,
		Role:               model.RoleAnonymous,
		VerificationToken:  &token,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := exists(tx, "email = ?", email)
		if err != nil {
			return err
		}

		if taken {
			return ErrConflict
		}

		if user.Nickname != "" {
			taken, err := exists(tx, "nickname = ?", user.Nickname)
			if err != nil {
				return err
			}

			if taken {
				return ErrConflict
			}
		} else if user.Nickname, err = uniqueNickname(tx); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&model.User{}).Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			user.Role = model.RoleAdmin
			user.EmailVerified = true
			user.VerificationToken = nil
		}

		return tx.Create(user).Error
	})
	if err != nil {
		return nil, storeErr("create user", err)
	}

	metrics.Registrations.Inc()
	zap.L().Info("User created", zap.String("userID", user.ID), zap.String("role", string(user.Role)))

	if !user.EmailVerified {
		s.notify(user, "verification", func() error {
			return s.mailer.SendVerificationEmail(ctx, user)
		})
	}

	return user, nil
}

// RegisterUser is the public registration entry point, it has the same
// contract as Create
func (s *UserService) RegisterUser(ctx context.Context, in UserCreate) (*model.User, error) {
	return s.Create(ctx, in)
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getBy(ctx, "id = ?", id)
}

func (s *UserService) GetByNickname(ctx context.Context, nickname string) (*model.User, error) {
	return s.getBy(ctx, "nickname = ?", nickname)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getBy(ctx, "email = ?", validators.NormalizeEmail(email))
}

func (s *UserService) getBy(ctx context.Context, query string, arg any) (*model.User, error) {
	var user model.User

	if err := s.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, storeErr("get user", err)
	}

	return &user, nil
}

// Update applies the non-nil fields of in. Only supplied fields are
// validated. Nothing is written if any check fails.
func (s *UserService) Update(ctx context.Context, id string, in UserUpdate) (*model.User, error) {
	if in.empty() {
		return nil, validationErr(errors.New("at least one field must be provided for update"))
	}

	if err := validators.Struct(in); err != nil {
		return nil, validationErr(err)
	}

	fields := map[string]any{}

	if in.Email != nil {
		email := validators.NormalizeEmail(*in.Email)
		if err := validators.EmailValidator(email); err != nil {
			return nil, validationErr(err)
		}

		fields["email"] = email
	}

	if in.Nickname != nil {
		if err := validators.NicknameValidator(*in.Nickname); err != nil {
			return nil, validationErr(err)
		}

		fields["nickname"] = *in.Nickname
	}

	if in.Password != nil {
		if err := s.policy.PasswordValidator(*in.Password); err != nil {
			return nil, validationErr(err)
		}

		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, storeErr("hash password", err)
		}

		fields["password_hash"] = hash
	}

	setIf(fields, "first_name", in.FirstName)
	setIf(fields, "last_name", in.LastName)
	setIf(fields, "bio", in.Bio)
	setIf(fields, "profile_picture_url", in.ProfilePictureURL)
	setIf(fields, "linkedin_profile_url", in.LinkedinProfileURL)
	setIf(fields, "github_profile_url", in.GithubProfileURL)

	if in.Role != nil {
		fields["role"] = *in.Role
	}

	var user model.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}

		if v, ok := fields["email"]; ok && v != user.Email {
			taken, err := exists(tx, "email = ? AND id <> ?", v, id)
			if err != nil {
				return err
			}

			if taken {
				return ErrConflict
			}
		}

		if v, ok := fields["nickname"]; ok && v != user.Nickname {
			taken, err := exists(tx, "nickname = ? AND id <> ?", v, id)
			if err != nil {
				return err
			}

			if taken {
				return ErrConflict
			}
		}

		if err := tx.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).First(&user).Error
	})
	if err != nil {
		return nil, storeErr("update user", err)
	}

	zap.L().Info("User updated", zap.String("userID", id))
	return &user, nil
}

// Delete removes the account and reports whether it existed
func (s *UserService) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}

		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, storeErr("delete user", err)
	}

	if deleted {
		zap.L().Info("User deleted", zap.String("userID", id))
	}

	return deleted, nil
}

// ListUsers returns a page of users in creation order. A failed query yields
// an empty page along with the error.
func (s *UserService) ListUsers(ctx context.Context, skip, limit int) ([]model.User, error) {
	if skip < 0 {
		skip = 0
	}

	if limit <= 0 {
		limit = defaultPageSize
	}

	limit = min(limit, maxPageSize)

	users := []model.User{}

	err := s.db.WithContext(ctx).
		Order("created_at asc").
		Order("id asc").
		Offset(skip).
		Limit(limit).
		Find(&users).
		Error
	if err != nil {
		return []model.User{}, storeErr("list users", err)
	}

	return users, nil
}

// Count returns the total number of users
func (s *UserService) Count(ctx context.Context) (int64, error) {
	var n int64

	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error; err != nil {
		return 0, storeErr("count users", err)
	}

	return n, nil
}

// LoginUser authenticates email and password. The user must exist, be
// verified, not be locked and know the password; every failed check returns
// ErrAuthenticationFailed. Wrong passwords count towards the lockout.
func (s *UserService) LoginUser(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.loginFailed("unknown_user", email)
			return nil, ErrAuthenticationFailed
		}

		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, err
	}

	if !user.EmailVerified {
		s.loginFailed("unverified", email)
		return nil, ErrAuthenticationFailed
	}

	if user.IsLocked {
		s.loginFailed("locked", email)
		return nil, ErrAuthenticationFailed
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		zap.L().Error("Failed to verify password", zap.String("userID", user.ID), zap.Error(err))
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, ErrAuthenticationFailed
	}

	if !ok {
		if err := s.recordFailedLogin(ctx, user); err != nil {
			return nil, err
		}

		s.loginFailed("bad_password", email)
		return nil, ErrAuthenticationFailed
	}

	now := time.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&model.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]any{
				"failed_login_attempts": 0,
				"last_login_at":         now,
			}).Error
	})
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, storeErr("record login", err)
	}

	user.FailedLoginAttempts = 0
	user.LastLoginAt = &now

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	zap.L().Info("User logged in", zap.String("userID", user.ID))

	return user, nil
}

func (s *UserService) loginFailed(reason, email string) {
	metrics.LoginAttempts.WithLabelValues(reason).Inc()
	zap.L().Debug("Login rejected", zap.String("reason", reason), zap.String("email", email))
}

// recordFailedLogin bumps the counter and locks the account once it reaches
// the configured maximum
func (s *UserService) recordFailedLogin(ctx context.Context, user *model.User) error {
	var lockedNow bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.User{}).
			Where("id = ?", user.ID).
			Update("failed_login_attempts", gorm.Expr("failed_login_attempts + ?", 1)).
			Error
		if err != nil {
			return err
		}

		res := tx.Model(&model.User{}).
			Where("id = ? AND is_locked = ? AND failed_login_attempts >= ?", user.ID, false, s.maxLoginAttempts).
			Update("is_locked", true)
		if res.Error != nil {
			return res.Error
		}

		lockedNow = res.RowsAffected > 0
		return tx.Where("id = ?", user.ID).First(user).Error
	})
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return storeErr("record failed login", err)
	}

	if lockedNow {
		metrics.AccountsLocked.Inc()
		zap.L().Warn("Account locked after too many failed logins",
			zap.String("userID", user.ID),
			zap.Int("attempts", user.FailedLoginAttempts),
		)

		s.notify(user, "account locked", func() error {
			return s.mailer.SendAccountLockedEmail(ctx, user, s.maxLoginAttempts)
		})
	}

	return nil
}

func (s *UserService) IsAccountLocked(ctx context.Context, email string) (bool, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}

	return user.IsLocked, nil
}

// ResetPassword replaces the password of id. A reset also clears the failed
// login counter and unlocks the account.
func (s *UserService) ResetPassword(ctx context.Context, id, newPassword string) error {
	if err := s.policy.PasswordValidator(newPassword); err != nil {
		return validationErr(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return storeErr("hash password", err)
	}

	var user model.User

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"password_hash":         hash,
				"failed_login_attempts": 0,
				"is_locked":             false,
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		return tx.Where("id = ?", id).First(&user).Error
	})
	if err != nil {
		return storeErr("reset password", err)
	}

	zap.L().Info("Password reset", zap.String("userID", id))

	s.notify(&user, "password reset", func() error {
		return s.mailer.SendPasswordResetEmail(ctx, &user)
	})

	return nil
}

// VerifyEmailWithToken marks the email of id as verified when token matches
// the stored one. The token is single use.
func (s *UserService) VerifyEmailWithToken(ctx context.Context, id, token string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}

		if !security.TokensMatch(user.VerificationToken, token) {
			return ErrInvalidToken
		}

		fields := map[string]any{
			"email_verified":     true,
			"verification_token": nil,
		}

		if user.Role == model.RoleAnonymous {
			fields["role"] = model.RoleAuthenticated
		}

		return tx.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
	})
	if err != nil {
		return storeErr("verify email", err)
	}

	metrics.Verifications.Inc()
	zap.L().Info("Email verified", zap.String("userID", id))

	return nil
}

// LockAccount locks id regardless of its failed login count
func (s *UserService) LockAccount(ctx context.Context, id string) error {
	return s.setLocked(ctx, id, map[string]any{"is_locked": true})
}

// UnlockAccount unlocks id and resets its failed login count
func (s *UserService) UnlockAccount(ctx context.Context, id string) error {
	return s.setLocked(ctx, id, map[string]any{"is_locked": false, "failed_login_attempts": 0})
}

func (s *UserService) setLocked(ctx context.Context, id string, fields map[string]any) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		return nil
	})
	if err != nil {
		return storeErr("set lock", err)
	}

	zap.L().Info("Account lock changed", zap.String("userID", id), zap.Any("locked", fields["is_locked"]))
	return nil
}

// notify sends an email without letting its failure affect the caller
func (s *UserService) notify(u *model.User, kind string, send func() error) {
	if s.mailer == nil {
		return
	}

	if err := send(); err != nil {
		zap.L().Error("Failed to send email",
			zap.String("kind", kind),
			zap.String("userID", u.ID),
			zap.Error(err),
		)
	}
}

func exists(tx *gorm.DB, query string, args ...any) (bool, error) {
	var n int64

	if err := tx.Model(&model.User{}).Where(query, args...).Count(&n).Error; err != nil {
		return false, err
	}

	return n > 0, nil
}

func uniqueNickname(tx *gorm.DB) (string, error) {
	for range nicknameAttempts {
		n, err := util.GenerateNickname()
		if err != nil {
			return "", err
		}

		taken, err := exists(tx, "nickname = ?", n)
		if err != nil {
			return "", err
		}

		if !taken {
			return n, nil
		}
	}

	return "", errors.New("failed to generate a unique nickname")
}

func setIf(fields map[string]any, key string, v *string) {
	if v != nil {
		fields[key] = *v
	}
}
