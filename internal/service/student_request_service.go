package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uniportal/portal-api/internal/dto"
	"github.com/uniportal/portal-api/internal/models"
	"github.com/uniportal/portal-api/internal/repository"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/export"
)

type studentRequestRepository interface {
	Create(ctx context.Context, req *models.StudentRequest) error
	ListByUser(ctx context.Context, userID int64) ([]models.StudentRequestDetail, error)
	ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.StudentRequestDetail, error)
	GetByID(ctx context.Context, id int64) (*models.StudentRequestDetail, error)
	GetPendingByID(ctx context.Context, id int64) (*models.StudentRequestDetail, error)
	TransitionFromPending(ctx context.Context, id int64, status models.RequestStatus, notes string) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type requestCatalog interface {
	GetByID(ctx context.Context, id int64) (*models.RequestType, error)
}

type receiptStore interface {
	Store(bucket, originalName string, r io.Reader) (string, error)
	Delete(rel string) bool
	URL(rel string) string
}

type requestNotifier interface {
	Notify(ctx context.Context, recipientID int64, title, message string)
}

// SubmitInput carries one request submission including its receipt upload.
type SubmitInput struct {
	FromHeader    string
	RequestID     int64
	Count         int
	StudentID     string
	StudentNameEn string
	StudentNameAr string
	Department    string

	Receipt     io.Reader
	ReceiptName string
	ReceiptSize int64
	ReceiptMIME string
}

// SubmitLimits bounds receipt uploads.
type SubmitLimits struct {
	MaxReceiptSize int64
	AllowedMIMEs   []string
}

const (
	maxRequestCount = 5
	maxNameLength   = 255
)

// StudentRequestService implements the paid document request workflow.
type StudentRequestService struct {
	requests studentRequestRepository
	catalog  requestCatalog
	assets   receiptStore
	notifier requestNotifier
	limits   SubmitLimits
	logger   *zap.Logger
}

// NewStudentRequestService constructs the service.
func NewStudentRequestService(requests studentRequestRepository, catalog requestCatalog, assets receiptStore, notifier requestNotifier, limits SubmitLimits, logger *zap.Logger) *StudentRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentRequestService{requests: requests, catalog: catalog, assets: assets, notifier: notifier, limits: limits, logger: logger}
}

// Submit validates and persists a new pending request. The receipt image
// is written to storage before the row insert; a failed insert removes
// the stored file again.
func (s *StudentRequestService) Submit(ctx context.Context, actor *models.JWTClaims, in SubmitInput) (*dto.SubmittedRequest, error) {
	if isWebOrigin(in.FromHeader) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "requests cannot be submitted from the web portal")
	}
	if actor.Type == models.UserTypeAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admins cannot submit student requests")
	}

	fields := map[string][]string{}
	if in.RequestID <= 0 {
		fields["request_id"] = append(fields["request_id"], "the request id field is required")
	}
	if in.Count < 1 || in.Count > maxRequestCount {
		fields["count"] = append(fields["count"], fmt.Sprintf("the count must be between 1 and %d", maxRequestCount))
	}
	requireBounded(fields, "student_id", in.StudentID)
	requireBounded(fields, "student_name_en", in.StudentNameEn)
	requireBounded(fields, "student_name_ar", in.StudentNameAr)
	requireBounded(fields, "department", in.Department)
	if in.Receipt == nil {
		fields["receipt_image"] = append(fields["receipt_image"], "the receipt image field is required")
	} else {
		if !s.mimeAllowed(in.ReceiptMIME) {
			fields["receipt_image"] = append(fields["receipt_image"], "the receipt image must be an image file")
		}
		if s.limits.MaxReceiptSize > 0 && in.ReceiptSize > s.limits.MaxReceiptSize {
			fields["receipt_image"] = append(fields["receipt_image"], fmt.Sprintf("the receipt image may not be greater than %d kilobytes", s.limits.MaxReceiptSize/1024))
		}
	}
	var requestType *models.RequestType
	if in.RequestID > 0 {
		var err error
		requestType, err = s.catalog.GetByID(ctx, in.RequestID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				fields["request_id"] = append(fields["request_id"], "the selected request id is invalid")
			} else {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request type")
			}
		}
	}
	if len(fields) > 0 {
		return nil, appErrors.Validation(fields)
	}

	// Graduates may only order graduation certificates and students may
	// only order everything else.
	if actor.Type == models.UserTypeGraduate && requestType.Category != models.RequestCategoryGraduation {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "graduates may only request graduation certificates")
	}
	if actor.Type == models.UserTypeStudent && requestType.Category == models.RequestCategoryGraduation {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students cannot request graduation certificates")
	}

	count := in.Count
	if actor.Type == models.UserTypeGraduate {
		count = 1
	}

	receiptPath, err := s.assets.Store("receipts", in.ReceiptName, in.Receipt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store receipt image")
	}

	req := &models.StudentRequest{
		UserID:        actor.UserID,
		RequestID:     requestType.ID,
		Count:         count,
		TotalPrice:    requestType.Price.Mul(decimal.NewFromInt(int64(count))),
		ReceiptImage:  receiptPath,
		StudentID:     strings.TrimSpace(in.StudentID),
		StudentNameEn: strings.TrimSpace(in.StudentNameEn),
		StudentNameAr: strings.TrimSpace(in.StudentNameAr),
		Department:    strings.TrimSpace(in.Department),
		Status:        models.RequestStatusPending,
	}

	if err := s.requests.Create(ctx, req); err != nil {
		if !s.assets.Delete(receiptPath) {
			s.logger.Warn("orphaned receipt image after failed insert", zap.String("path", receiptPath))
		}
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "you already have a pending request of this type")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student request")
	}

	receiptURL := s.assets.URL(receiptPath)
	return &dto.SubmittedRequest{
		ID:           req.ID,
		StudentID:    req.StudentID,
		Count:        req.Count,
		TotalPrice:   req.TotalPrice,
		Status:       req.Status,
		ReceiptImage: &receiptURL,
		RequestType: dto.RequestTypeInfo{
			ID:    requestType.ID,
			Name:  requestType.Name,
			Price: requestType.Price,
		},
	}, nil
}

// Approve moves a pending request to approved, recording the delivery
// date and notifying the owner.
func (s *StudentRequestService) Approve(ctx context.Context, id int64, deliveryDate string) error {
	date, err := time.Parse("2006-01-02", deliveryDate)
	if err != nil {
		return appErrors.Validation(map[string][]string{
			"delivery_date": {"the delivery date must match the format YYYY-MM-DD"},
		})
	}
	notes := "Delivery date: " + date.Format("2006-01-02")
	detail, err := s.transition(ctx, id, models.RequestStatusApproved, notes)
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, detail.UserID,
		"Request approved",
		fmt.Sprintf("Your %s request has been approved. Delivery date: %s.", detail.TypeName, date.Format("2006-01-02")))
	return nil
}

// Reject moves a pending request to rejected, recording the reason and
// notifying the owner.
func (s *StudentRequestService) Reject(ctx context.Context, id int64, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" || len(reason) > maxNameLength {
		return appErrors.Validation(map[string][]string{
			"reason": {"the reason field is required and may not be greater than 255 characters"},
		})
	}
	detail, err := s.transition(ctx, id, models.RequestStatusRejected, reason)
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, detail.UserID,
		"Request rejected",
		fmt.Sprintf("Your %s request has been rejected. Reason: %s", detail.TypeName, reason))
	return nil
}

func (s *StudentRequestService) transition(ctx context.Context, id int64, status models.RequestStatus, notes string) (*models.StudentRequestDetail, error) {
	detail, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student request")
	}
	moved, err := s.requests.TransitionFromPending(ctx, id, status, notes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student request")
	}
	if !moved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student request has already been decided")
	}
	return detail, nil
}

// ListOwn returns the caller's requests, newest first. Admin accounts
// have no requests of their own and are rejected.
func (s *StudentRequestService) ListOwn(ctx context.Context, actor *models.JWTClaims) ([]dto.StudentRequestView, error) {
	if actor.Type == models.UserTypeAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admins do not own student requests")
	}
	rows, err := s.requests.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student requests")
	}
	return s.project(rows), nil
}

// ListByStatus returns every request in the given state for admin review.
func (s *StudentRequestService) ListByStatus(ctx context.Context, status models.RequestStatus) ([]dto.StudentRequestView, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown request status")
	}
	rows, err := s.requests.ListByStatus(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student requests")
	}
	return s.project(rows), nil
}

// GetPending returns a single still-pending request for admin review. A
// decided id behaves exactly like a missing one.
func (s *StudentRequestService) GetPending(ctx context.Context, id int64) (*dto.StudentRequestView, error) {
	row, err := s.requests.GetPendingByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student request")
	}
	view := s.projectOne(*row)
	return &view, nil
}

// Delete removes one of the caller's pending requests along with its
// receipt image. Receipt removal is best-effort; the row delete proceeds
// regardless.
func (s *StudentRequestService) Delete(ctx context.Context, actor *models.JWTClaims, id int64) error {
	row, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student request")
	}
	if row.UserID != actor.UserID {
		return appErrors.Clone(appErrors.ErrNotFound, "student request not found")
	}
	if row.Status != models.RequestStatusPending {
		return appErrors.Clone(appErrors.ErrForbidden, "only pending requests can be deleted")
	}
	if !s.assets.Delete(row.ReceiptImage) {
		s.logger.Warn("failed to delete receipt image", zap.String("path", row.ReceiptImage), zap.Int64("request_id", id))
	}
	if err := s.requests.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student request")
	}
	return nil
}

// Export renders every request in the given state as a downloadable
// report for the registrar's office.
func (s *StudentRequestService) Export(ctx context.Context, status models.RequestStatus, format export.Format) ([]byte, string, error) {
	views, err := s.ListByStatus(ctx, status)
	if err != nil {
		return nil, "", err
	}

	table := export.Table{
		Title:   fmt.Sprintf("Student Requests (%s)", status),
		Columns: []string{"ID", "Student ID", "Student Name", "Department", "Type", "Count", "Total Price", "Status", "Submitted"},
	}
	for _, v := range views {
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(v.RequestID, 10),
			v.StudentID,
			v.StudentNameEn,
			v.Department,
			v.TypeName,
			strconv.Itoa(v.Count),
			v.TotalPrice.StringFixed(2),
			string(v.Status),
			v.CreatedAt.Format("2006-01-02"),
		})
	}

	data, err := export.Render(format, table)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	filename := fmt.Sprintf("student-requests-%s.%s", status, format.Extension())
	return data, filename, nil
}

func (s *StudentRequestService) project(rows []models.StudentRequestDetail) []dto.StudentRequestView {
	views := make([]dto.StudentRequestView, 0, len(rows))
	for _, row := range rows {
		views = append(views, s.projectOne(row))
	}
	return views
}

func (s *StudentRequestService) projectOne(row models.StudentRequestDetail) dto.StudentRequestView {
	var receipt *string
	if row.ReceiptImage != "" {
		url := s.assets.URL(row.ReceiptImage)
		receipt = &url
	}
	return dto.StudentRequestView{
		RequestID:     row.ID,
		StudentID:     row.StudentID,
		TypeID:        row.RequestID,
		TypeName:      row.TypeName,
		Count:         row.Count,
		TotalPrice:    row.TotalPrice,
		Status:        row.Status,
		Notes:         row.Notes,
		StudentNameEn: row.StudentNameEn,
		StudentNameAr: row.StudentNameAr,
		Department:    row.Department,
		ReceiptImage:  receipt,
		CreatedAt:     row.CreatedAt,
	}
}

func (s *StudentRequestService) mimeAllowed(mime string) bool {
	if len(s.limits.AllowedMIMEs) == 0 {
		return strings.HasPrefix(mime, "image/")
	}
	for _, allowed := range s.limits.AllowedMIMEs {
		if strings.EqualFold(mime, allowed) {
			return true
		}
	}
	return false
}

// isWebOrigin reports whether the submission came from the web portal.
// A missing header counts as web, matching the mobile client contract
// where the app always sends X-From.
func isWebOrigin(from string) bool {
	from = strings.TrimSpace(from)
	return from == "" || strings.EqualFold(from, "web")
}

func requireBounded(fields map[string][]string, name, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		fields[name] = append(fields[name], "the "+strings.ReplaceAll(name, "_", " ")+" field is required")
		return
	}
	if len(value) > maxNameLength {
		fields[name] = append(fields[name], "the "+strings.ReplaceAll(name, "_", " ")+" may not be greater than 255 characters")
	}
}
