package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uniportal/portal-api/internal/models"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
)

const (
	resetCodeTTL      = 15 * time.Minute
	resetCodeCooldown = time.Minute
	resetMaxAttempts  = 5
	minPasswordLength = 6
)

type passwordUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

type resetCodeStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type resetMailer interface {
	Send(to, subject, body string) error
}

// resetEntry is the per-email state kept in the cache between the
// send-code and reset steps.
type resetEntry struct {
	Code     string    `json:"code"`
	UserID   int64     `json:"user_id"`
	SentAt   time.Time `json:"sent_at"`
	Attempts int       `json:"attempts"`
	Verified bool      `json:"verified"`
}

// PasswordResetService drives the emailed-code password reset flow.
type PasswordResetService struct {
	users     passwordUserRepository
	codes     resetCodeStore
	mailer    resetMailer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPasswordResetService constructs the service.
func NewPasswordResetService(users passwordUserRepository, codes resetCodeStore, mailer resetMailer, validate *validator.Validate, logger *zap.Logger) *PasswordResetService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordResetService{users: users, codes: codes, mailer: mailer, validator: validate, logger: logger}
}

// SendCode emails a six digit reset code to the account's address. A
// code already sent within the cooldown window is not resent.
func (s *PasswordResetService) SendCode(ctx context.Context, email string) error {
	if err := s.requireEmail(email); err != nil {
		return err
	}
	user, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}

	key := resetKey(email)
	var existing resetEntry
	if err := s.codes.Get(ctx, key, &existing); err == nil {
		if time.Since(existing.SentAt) < resetCodeCooldown {
			return appErrors.Clone(appErrors.ErrTooManyRequests, "a reset code was sent recently, please wait before requesting another")
		}
	}

	code, err := generateResetCode()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate reset code")
	}

	entry := resetEntry{Code: code, UserID: user.ID, SentAt: time.Now().UTC()}
	if err := s.codes.Set(ctx, key, entry, resetCodeTTL); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store reset code")
	}

	body := fmt.Sprintf("<p>Your password reset code is <strong>%s</strong>.</p><p>The code expires in %d minutes.</p>",
		code, int(resetCodeTTL.Minutes()))
	if err := s.mailer.Send(user.Email, "Password reset code", body); err != nil {
		s.logger.Error("failed to send reset code", zap.String("email", email), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send reset code")
	}

	s.logger.Info("password reset code sent", zap.Int64("user_id", user.ID))
	return nil
}

// VerifyCode checks the submitted code without consuming it, so the
// client can collect the new password before calling Reset.
func (s *PasswordResetService) VerifyCode(ctx context.Context, email, code string) error {
	entry, key, err := s.check(ctx, email, code)
	if err != nil {
		return err
	}

	entry.Verified = true
	if err := s.codes.Set(ctx, key, entry, resetCodeTTL); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update reset code")
	}
	return nil
}

// Reset sets a new password after a final code check and invalidates
// the code.
func (s *PasswordResetService) Reset(ctx context.Context, email, code, password string) error {
	if len(password) < minPasswordLength {
		return appErrors.Validation(map[string][]string{
			"password": {fmt.Sprintf("the password must be at least %d characters", minPasswordLength)},
		})
	}

	entry, key, err := s.check(ctx, email, code)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	if err := s.users.UpdatePassword(ctx, entry.UserID, string(hash)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no account found for this email")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}

	if err := s.codes.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to clear reset code", zap.String("email", email), zap.Error(err))
	}

	s.logger.Info("password reset completed", zap.Int64("user_id", entry.UserID))
	return nil
}

// check loads the stored entry and matches the submitted code,
// counting failed attempts so a code cannot be brute forced.
func (s *PasswordResetService) check(ctx context.Context, email, code string) (resetEntry, string, error) {
	if err := s.requireEmail(email); err != nil {
		return resetEntry{}, "", err
	}
	key := resetKey(email)

	var entry resetEntry
	if err := s.codes.Get(ctx, key, &entry); err != nil {
		return resetEntry{}, "", invalidResetCode()
	}

	if entry.Attempts >= resetMaxAttempts {
		if err := s.codes.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to clear reset code", zap.String("email", email), zap.Error(err))
		}
		return resetEntry{}, "", appErrors.Clone(appErrors.ErrTooManyRequests, "too many failed attempts, please request a new code")
	}

	if entry.Code != code {
		entry.Attempts++
		if err := s.codes.Set(ctx, key, entry, resetCodeTTL); err != nil {
			s.logger.Warn("failed to record reset attempt", zap.String("email", email), zap.Error(err))
		}
		return resetEntry{}, "", invalidResetCode()
	}

	return entry, key, nil
}

func (s *PasswordResetService) lookup(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no account found for this email")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up account")
	}
	return user, nil
}

func (s *PasswordResetService) requireEmail(email string) error {
	if err := s.validator.Var(email, "required,email"); err != nil {
		return appErrors.Validation(map[string][]string{
			"email": {"a valid email address is required"},
		})
	}
	return nil
}

func invalidResetCode() error {
	return appErrors.Validation(map[string][]string{
		"code": {"the reset code is invalid or has expired"},
	})
}

func resetKey(email string) string {
	return "password_reset:" + email
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
