package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uniportal/portal-api/internal/dto"
	"github.com/uniportal/portal-api/internal/models"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	ExistsByPersonalEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	UpdateType(ctx context.Context, id int64, userType models.UserType) error
	UpdateProfilePhoto(ctx context.Context, id int64, path *string) error
}

type profilePhotoStore interface {
	Store(bucket, originalName string, r io.Reader) (string, error)
	Delete(rel string) bool
	URL(rel string) string
	StaticURL(name string) string
}

// AccountDefaults fills in the fields admins usually omit when creating
// accounts in bulk.
type AccountDefaults struct {
	Major    string
	Password string
}

// CreateUserInput is the admin payload for a new student or graduate.
type CreateUserInput struct {
	ID            int64  `validate:"required,gt=0"`
	Name          string `validate:"required,max=255"`
	Email         string `validate:"required,email"`
	PersonalEmail string `validate:"omitempty,email"`
	PhoneNumber   string `validate:"omitempty,max=32"`
	Type          string `validate:"omitempty,oneof=student graduate"`
	Major         string `validate:"omitempty,max=255"`
	Password      string `validate:"omitempty,min=6"`
}

// CreateAdminInput is the payload for a new admin account.
type CreateAdminInput struct {
	Name     string `validate:"required,max=255"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// UserService covers account administration and profile management.
type UserService struct {
	repo      userRepository
	assets    profilePhotoStore
	validator *validator.Validate
	defaults  AccountDefaults
	logger    *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(repo userRepository, assets profilePhotoStore, validate *validator.Validate, defaults AccountDefaults, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, assets: assets, validator: validate, defaults: defaults, logger: logger}
}

// CreateUser registers a student or graduate account. Conflicting unique
// fields are reported together in a single message.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	conflicts, err := s.collectConflicts(ctx, in.ID, in.Email, in.PhoneNumber, in.PersonalEmail)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, strings.Join(conflicts, ", ")+" already taken")
	}

	userType := models.UserType(in.Type)
	if in.Type == "" {
		userType = models.UserTypeStudent
	}
	major := in.Major
	if major == "" {
		major = s.defaults.Major
	}
	password := in.Password
	if password == "" {
		password = s.defaults.Password
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           in.ID,
		Name:         in.Name,
		Email:        in.Email,
		Type:         userType,
		Major:        major,
		PasswordHash: string(hash),
	}
	if in.PersonalEmail != "" {
		user.PersonalEmail = &in.PersonalEmail
	}
	if in.PhoneNumber != "" {
		user.PhoneNumber = &in.PhoneNumber
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("type", string(user.Type)))
	return user, nil
}

// CreateAdmin registers an admin account.
func (s *UserService) CreateAdmin(ctx context.Context, in CreateAdminInput) (*models.User, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}

	taken, err := s.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Type:         models.UserTypeAdmin,
		Major:        s.defaults.Major,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin")
	}
	s.logger.Info("admin created", zap.Int64("user_id", user.ID))
	return user, nil
}

// ChangeType switches an account between student and graduate.
func (s *UserService) ChangeType(ctx context.Context, id int64, newType string) error {
	userType := models.UserType(newType)
	if userType != models.UserTypeStudent && userType != models.UserTypeGraduate {
		return appErrors.Validation(map[string][]string{
			"type": {"the type must be student or graduate"},
		})
	}
	if err := s.repo.UpdateType(ctx, id, userType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to change user type")
	}
	return nil
}

// ImportUsers bulk-creates student accounts from an xlsx sheet. Expected
// columns: id, name, email, optional phone. Rows whose id, email, or
// phone is already taken are skipped and reported.
func (s *UserService) ImportUsers(ctx context.Context, file io.Reader) (*dto.ImportResult, error) {
	book, err := excelize.OpenReader(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "the uploaded file is not a valid xlsx workbook")
	}
	defer book.Close() //nolint:errcheck

	sheet := book.GetSheetName(0)
	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read the worksheet")
	}

	result := &dto.ImportResult{SkippedIDs: []int64{}}
	for i, row := range rows {
		if i == 0 && looksLikeHeader(row) {
			continue
		}
		if len(row) < 3 {
			result.SkippedCount++
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil || id <= 0 {
			result.SkippedCount++
			continue
		}
		name := strings.TrimSpace(row[1])
		email := strings.TrimSpace(row[2])
		phone := ""
		if len(row) > 3 {
			phone = strings.TrimSpace(row[3])
		}
		if name == "" || email == "" {
			result.SkippedCount++
			result.SkippedIDs = append(result.SkippedIDs, id)
			continue
		}

		conflicts, err := s.collectConflicts(ctx, id, email, phone, "")
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			result.SkippedCount++
			result.SkippedIDs = append(result.SkippedIDs, id)
			continue
		}

		in := CreateUserInput{ID: id, Name: name, Email: email, PhoneNumber: phone}
		if err := s.validator.Struct(in); err != nil {
			result.SkippedCount++
			result.SkippedIDs = append(result.SkippedIDs, id)
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(s.defaults.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user := &models.User{
			ID:           id,
			Name:         name,
			Email:        email,
			Type:         models.UserTypeStudent,
			Major:        s.defaults.Major,
			PasswordHash: string(hash),
		}
		if phone != "" {
			user.PhoneNumber = &phone
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import user")
		}
		result.ImportedCount++
	}

	s.logger.Info("user import finished",
		zap.Int("imported", result.ImportedCount), zap.Int("skipped", result.SkippedCount))
	return result, nil
}

// Profile returns the caller's profile view with resolved photo URLs.
func (s *UserService) Profile(ctx context.Context, userID int64) (*dto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	photoURL := s.assets.StaticURL("default-avatar.png")
	if user.ProfilePhotoPath != nil && *user.ProfilePhotoPath != "" {
		photoURL = s.assets.URL(*user.ProfilePhotoPath)
	}
	return &dto.ProfileResponse{
		Name:            user.Name,
		Email:           user.Email,
		PhoneNumber:     user.PhoneNumber,
		Major:           user.Major,
		Type:            capitalize(string(user.Type)),
		ProfilePhotoURL: photoURL,
		CoverPhotoURL:   s.assets.StaticURL("default-cover.png"),
	}, nil
}

// UpdateProfilePhoto stores a new photo and removes the previous one.
func (s *UserService) UpdateProfilePhoto(ctx context.Context, userID int64, originalName string, file io.Reader) (string, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	path, err := s.assets.Store("profile-photos", originalName, file)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store profile photo")
	}
	if err := s.repo.UpdateProfilePhoto(ctx, userID, &path); err != nil {
		s.assets.Delete(path)
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile photo")
	}
	if user.ProfilePhotoPath != nil && !s.assets.Delete(*user.ProfilePhotoPath) {
		s.logger.Warn("failed to delete previous profile photo", zap.String("path", *user.ProfilePhotoPath))
	}
	return s.assets.URL(path), nil
}

// DeleteProfilePhoto removes the stored photo and resets to the default.
func (s *UserService) DeleteProfilePhoto(ctx context.Context, userID int64) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if user.ProfilePhotoPath == nil || *user.ProfilePhotoPath == "" {
		return nil
	}
	if err := s.repo.UpdateProfilePhoto(ctx, userID, nil); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear profile photo")
	}
	if !s.assets.Delete(*user.ProfilePhotoPath) {
		s.logger.Warn("failed to delete profile photo", zap.String("path", *user.ProfilePhotoPath))
	}
	return nil
}

func (s *UserService) collectConflicts(ctx context.Context, id int64, email, phone, personalEmail string) ([]string, error) {
	var conflicts []string
	taken, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check user id")
	}
	if taken {
		conflicts = append(conflicts, "id")
	}
	taken, err = s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		conflicts = append(conflicts, "email")
	}
	if phone != "" {
		taken, err = s.repo.ExistsByPhone(ctx, phone)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check phone number")
		}
		if taken {
			conflicts = append(conflicts, "phone number")
		}
	}
	if personalEmail != "" {
		taken, err = s.repo.ExistsByPersonalEmail(ctx, personalEmail)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check personal email")
		}
		if taken {
			conflicts = append(conflicts, "personal email")
		}
	}
	return conflicts, nil
}

func looksLikeHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	_, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	return err != nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
