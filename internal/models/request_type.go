package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestTypeCategory is the explicit eligibility class of a catalog
// entry. It replaces matching on the entry name, which broke whenever an
// admin renamed "Graduation Certificate".
type RequestTypeCategory string

const (
	RequestCategoryStandard   RequestTypeCategory = "standard"
	RequestCategoryGraduation RequestTypeCategory = "graduation_certificate"
)

// Valid reports whether the category is known.
func (c RequestTypeCategory) Valid() bool {
	switch c {
	case RequestCategoryStandard, RequestCategoryGraduation:
		return true
	}
	return false
}

// RequestType is a named, priced service a student or graduate can
// request (transcript, certificate, ID card reprint).
type RequestType struct {
	ID          int64               `db:"id" json:"id"`
	Name        string              `db:"name" json:"name"`
	Price       decimal.Decimal     `db:"price" json:"price"`
	Description *string             `db:"description" json:"description,omitempty"`
	Category    RequestTypeCategory `db:"category" json:"category"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`
}
