package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus tracks a student request through its lifecycle.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// Valid reports whether the status is one of the known states.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// StudentRequest ties a user, a catalog entry, a receipt image and a
// status together. TotalPrice is computed at creation from the catalog
// price and frozen; later catalog price changes never touch it.
type StudentRequest struct {
	ID            int64           `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	RequestID     int64           `db:"request_id" json:"request_id"`
	Count         int             `db:"count" json:"count"`
	TotalPrice    decimal.Decimal `db:"total_price" json:"total_price"`
	ReceiptImage  string          `db:"receipt_image" json:"receipt_image"`
	StudentID     string          `db:"student_id" json:"student_id"`
	StudentNameEn string          `db:"student_name_en" json:"student_name_en"`
	StudentNameAr string          `db:"student_name_ar" json:"student_name_ar"`
	Department    string          `db:"department" json:"department"`
	Status        RequestStatus   `db:"status" json:"status"`
	Notes         *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// StudentRequestDetail is a request joined with its catalog entry and the
// owning user, as loaded for reviews and transitions.
type StudentRequestDetail struct {
	StudentRequest
	TypeName     string              `db:"type_name"`
	TypePrice    decimal.Decimal     `db:"type_price"`
	TypeCategory RequestTypeCategory `db:"type_category"`
	OwnerName    string              `db:"owner_name"`
	OwnerEmail   string              `db:"owner_email"`
}
