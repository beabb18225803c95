package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/uniportal/portal-api/internal/models"
)

const userColumns = `id, name, email, personal_email, phone_number, type, major, password_hash, profile_photo_path, created_at, updated_at`

// UserRepository provides database access for portal accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by university email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ExistsByID reports whether a user with the given id already exists.
func (r *UserRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("user exists by id: %w", err)
	}
	return exists, nil
}

// ExistsByEmail reports whether the university email is taken.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email); err != nil {
		return false, fmt.Errorf("user exists by email: %w", err)
	}
	return exists, nil
}

// ExistsByPhone reports whether the phone number is taken.
func (r *UserRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE phone_number = $1)`, phone); err != nil {
		return false, fmt.Errorf("user exists by phone: %w", err)
	}
	return exists, nil
}

// ExistsByPersonalEmail reports whether the personal email is taken.
func (r *UserRepository) ExistsByPersonalEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE personal_email = $1)`, email); err != nil {
		return false, fmt.Errorf("user exists by personal email: %w", err)
	}
	return exists, nil
}

// Create inserts a new user. A zero ID lets the database sequence assign
// one; externally supplied ids (student numbers) are stored verbatim.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if user.ID != 0 {
		const query = `INSERT INTO users (id, name, email, personal_email, phone_number, type, major, password_hash, profile_photo_path, created_at, updated_at)
VALUES (:id, :name, :email, :personal_email, :phone_number, :type, :major, :password_hash, :profile_photo_path, :created_at, :updated_at)`
		if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	}

	const query = `INSERT INTO users (name, email, personal_email, phone_number, type, major, password_hash, profile_photo_path, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		user.Name, user.Email, user.PersonalEmail, user.PhoneNumber, user.Type,
		user.Major, user.PasswordHash, user.ProfilePhotoPath, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateType changes the account type of an existing user.
func (r *UserRepository) UpdateType(ctx context.Context, id int64, userType models.UserType) error {
	const query = `UPDATE users SET type = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, userType, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateProfilePhoto sets or clears the stored profile photo path.
func (r *UserRepository) UpdateProfilePhoto(ctx context.Context, id int64, path *string) error {
	const query = `UPDATE users SET profile_photo_path = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, path, time.Now().UTC()); err != nil {
		return fmt.Errorf("update profile photo: %w", err)
	}
	return nil
}

// ListIDsByTypes returns ids of every user with one of the given types.
// Used for notification fan-out to students and graduates.
func (r *UserRepository) ListIDsByTypes(ctx context.Context, types ...models.UserType) ([]int64, error) {
	values := make([]string, len(types))
	for i, t := range types {
		values[i] = string(t)
	}
	var ids []int64
	const query = `SELECT id FROM users WHERE type = ANY($1) ORDER BY id`
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(values)); err != nil {
		return nil, fmt.Errorf("list user ids by types: %w", err)
	}
	return ids, nil
}
