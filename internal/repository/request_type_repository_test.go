package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniportal/portal-api/internal/models"
)

func TestRequestTypeList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestTypeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "price", "description", "category", "created_at", "updated_at"}).
		AddRow(int64(1), "Enrollment Proof", "25", nil, string(models.RequestCategoryStandard), now, now).
		AddRow(int64(2), "Graduation Certificate", "150", nil, string(models.RequestCategoryGraduation), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, price, description, category, created_at, updated_at FROM request_types ORDER BY created_at DESC")).
		WillReturnRows(rows)

	types, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, models.RequestCategoryGraduation, types[1].Category)
	assert.True(t, types[0].Price.Equal(decimal.NewFromInt(25)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestTypeCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestTypeRepository(db)

	mock.ExpectQuery("INSERT INTO request_types").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	rt := &models.RequestType{
		Name:     "Transcript",
		Price:    decimal.NewFromInt(50),
		Category: models.RequestCategoryStandard,
	}
	err := repo.Create(context.Background(), rt)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rt.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestTypeUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestTypeRepository(db)

	mock.ExpectExec("UPDATE request_types SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.RequestType{ID: 99, Name: "Transcript", Price: decimal.NewFromInt(50), Category: models.RequestCategoryStandard})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestTypeDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestTypeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM request_types WHERE id = $1")).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), 2)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
