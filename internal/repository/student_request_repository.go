package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/uniportal/portal-api/internal/models"
)

const studentRequestDetailColumns = `sr.id, sr.user_id, sr.request_id, sr.count, sr.total_price, sr.receipt_image,
sr.student_id, sr.student_name_en, sr.student_name_ar, sr.department, sr.status, sr.notes, sr.created_at, sr.updated_at,
rt.name AS type_name, rt.price AS type_price, rt.category AS type_category,
u.name AS owner_name, u.email AS owner_email`

const studentRequestDetailFrom = ` FROM student_requests sr
JOIN request_types rt ON rt.id = sr.request_id
JOIN users u ON u.id = sr.user_id`

// StudentRequestRepository provides persistence for the request workflow.
// The "one pending request per (user, type)" invariant is owned by a
// partial unique index:
//
//	CREATE UNIQUE INDEX student_requests_pending_uniq
//	  ON student_requests (user_id, request_id) WHERE status = 'pending';
//
// so concurrent submissions cannot slip past a find-then-create check.
type StudentRequestRepository struct {
	db *sqlx.DB
}

// NewStudentRequestRepository creates the repository.
func NewStudentRequestRepository(db *sqlx.DB) *StudentRequestRepository {
	return &StudentRequestRepository{db: db}
}

// IsUniqueViolation reports whether the error is a Postgres unique
// constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Create inserts a new pending request. A duplicate-pending submission
// surfaces as a unique violation from the partial index.
func (r *StudentRequestRepository) Create(ctx context.Context, req *models.StudentRequest) error {
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	const query = `INSERT INTO student_requests (user_id, request_id, count, total_price, receipt_image, student_id, student_name_en, student_name_ar, department, status, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		req.UserID, req.RequestID, req.Count, req.TotalPrice, req.ReceiptImage,
		req.StudentID, req.StudentNameEn, req.StudentNameAr, req.Department,
		req.Status, req.Notes, req.CreatedAt, req.UpdatedAt,
	).Scan(&req.ID); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create student request: %w", err)
	}
	return nil
}

// ListByUser returns all requests of one user joined with their catalog
// entries, newest first.
func (r *StudentRequestRepository) ListByUser(ctx context.Context, userID int64) ([]models.StudentRequestDetail, error) {
	query := `SELECT ` + studentRequestDetailColumns + studentRequestDetailFrom + ` WHERE sr.user_id = $1 ORDER BY sr.created_at DESC`
	var rows []models.StudentRequestDetail
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list student requests by user: %w", err)
	}
	return rows, nil
}

// ListByStatus returns all requests in the given state, newest first.
func (r *StudentRequestRepository) ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.StudentRequestDetail, error) {
	query := `SELECT ` + studentRequestDetailColumns + studentRequestDetailFrom + ` WHERE sr.status = $1 ORDER BY sr.created_at DESC`
	var rows []models.StudentRequestDetail
	if err := r.db.SelectContext(ctx, &rows, query, status); err != nil {
		return nil, fmt.Errorf("list student requests by status: %w", err)
	}
	return rows, nil
}

// GetByID returns one request joined with its catalog entry and owner.
func (r *StudentRequestRepository) GetByID(ctx context.Context, id int64) (*models.StudentRequestDetail, error) {
	query := `SELECT ` + studentRequestDetailColumns + studentRequestDetailFrom + ` WHERE sr.id = $1 LIMIT 1`
	var row models.StudentRequestDetail
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student request by id: %w", err)
	}
	return &row, nil
}

// GetPendingByID returns one request only while it is still pending. An
// approved or rejected id behaves as if the row did not exist; the admin
// pending-detail view depends on that.
func (r *StudentRequestRepository) GetPendingByID(ctx context.Context, id int64) (*models.StudentRequestDetail, error) {
	query := `SELECT ` + studentRequestDetailColumns + studentRequestDetailFrom + ` WHERE sr.id = $1 AND sr.status = $2 LIMIT 1`
	var row models.StudentRequestDetail
	if err := r.db.GetContext(ctx, &row, query, id, models.RequestStatusPending); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find pending student request by id: %w", err)
	}
	return &row, nil
}

// TransitionFromPending moves a pending request into a terminal state and
// records the transition notes. It reports false when the row was not
// pending anymore (or never existed), leaving it untouched.
func (r *StudentRequestRepository) TransitionFromPending(ctx context.Context, id int64, status models.RequestStatus, notes string) (bool, error) {
	const query = `UPDATE student_requests SET status = $2, notes = $3, updated_at = $4 WHERE id = $1 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, id, status, notes, time.Now().UTC(), models.RequestStatusPending)
	if err != nil {
		return false, fmt.Errorf("transition student request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition student request: %w", err)
	}
	return n > 0, nil
}

// Delete removes a request row.
func (r *StudentRequestRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM student_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// StatusCounts aggregates request totals per state for the dashboard.
type StatusCounts struct {
	Total    int `db:"total"`
	Pending  int `db:"pending"`
	Approved int `db:"approved"`
	Rejected int `db:"rejected"`
}

// CountByStatus returns request totals per state in a single query.
func (r *StudentRequestRepository) CountByStatus(ctx context.Context) (*StatusCounts, error) {
	const query = `SELECT COUNT(*) AS total,
COUNT(*) FILTER (WHERE status = 'pending') AS pending,
COUNT(*) FILTER (WHERE status = 'approved') AS approved,
COUNT(*) FILTER (WHERE status = 'rejected') AS rejected
FROM student_requests`
	var counts StatusCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count student requests: %w", err)
	}
	return &counts, nil
}
