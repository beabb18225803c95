package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/uniportal/portal-api/internal/models"
)

// StudentRequestView is the projection returned by every request listing.
// ReceiptImage carries the fully-qualified asset URL, or null when the
// record has none.
type StudentRequestView struct {
	RequestID     int64                `json:"request_id"`
	StudentID     string               `json:"student_id"`
	TypeID        int64                `json:"type_id"`
	TypeName      string               `json:"type_name"`
	Count         int                  `json:"count"`
	TotalPrice    decimal.Decimal      `json:"total_price"`
	Status        models.RequestStatus `json:"status"`
	Notes         *string              `json:"notes"`
	StudentNameEn string               `json:"student_name_en"`
	StudentNameAr string               `json:"student_name_ar"`
	Department    string               `json:"department"`
	ReceiptImage  *string              `json:"receipt_image"`
	CreatedAt     time.Time            `json:"created_at"`
}

// RequestTypeInfo is the catalog entry nested in a submit response.
type RequestTypeInfo struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// SubmittedRequest is the response body for a successful submission,
// joining the new record with its catalog entry.
type SubmittedRequest struct {
	ID           int64                `json:"id"`
	StudentID    string               `json:"student_id"`
	Count        int                  `json:"count"`
	TotalPrice   decimal.Decimal      `json:"total_price"`
	Status       models.RequestStatus `json:"status"`
	ReceiptImage *string              `json:"receipt_image"`
	RequestType  RequestTypeInfo      `json:"request_type"`
}
