package models

import "time"

// UserType discriminates the three account kinds the portal serves.
type UserType string

const (
	UserTypeStudent  UserType = "student"
	UserTypeGraduate UserType = "graduate"
	UserTypeAdmin    UserType = "admin"
)

// Valid reports whether the value is one of the known user types.
func (t UserType) Valid() bool {
	switch t {
	case UserTypeStudent, UserTypeGraduate, UserTypeAdmin:
		return true
	}
	return false
}

// User represents an application user stored in the users table. IDs may
// be externally supplied (university student numbers) so they are plain
// integers rather than generated UUIDs.
type User struct {
	ID               int64     `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	PersonalEmail    *string   `db:"personal_email" json:"personal_email,omitempty"`
	PhoneNumber      *string   `db:"phone_number" json:"phone_number,omitempty"`
	Type             UserType  `db:"type" json:"type"`
	Major            string    `db:"major" json:"major"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	ProfilePhotoPath *string   `db:"profile_photo_path" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
