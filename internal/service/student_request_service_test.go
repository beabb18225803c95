package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniportal/portal-api/internal/models"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/export"
)

type mockRequestRepo struct {
	created    *models.StudentRequest
	createErr  error
	byID       *models.StudentRequestDetail
	byIDErr    error
	pending    *models.StudentRequestDetail
	pendingErr error
	byUser     []models.StudentRequestDetail
	byStatus   []models.StudentRequestDetail
	moved      bool
	moveErr    error
	lastStatus models.RequestStatus
	lastNotes  string
	deleteErr  error
	deleted    []int64
}

func (m *mockRequestRepo) Create(ctx context.Context, req *models.StudentRequest) error {
	if m.createErr != nil {
		return m.createErr
	}
	req.ID = 42
	m.created = req
	return nil
}

func (m *mockRequestRepo) ListByUser(ctx context.Context, userID int64) ([]models.StudentRequestDetail, error) {
	return m.byUser, nil
}

func (m *mockRequestRepo) ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.StudentRequestDetail, error) {
	return m.byStatus, nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*models.StudentRequestDetail, error) {
	if m.byIDErr != nil {
		return nil, m.byIDErr
	}
	return m.byID, nil
}

func (m *mockRequestRepo) GetPendingByID(ctx context.Context, id int64) (*models.StudentRequestDetail, error) {
	if m.pendingErr != nil {
		return nil, m.pendingErr
	}
	return m.pending, nil
}

func (m *mockRequestRepo) TransitionFromPending(ctx context.Context, id int64, status models.RequestStatus, notes string) (bool, error) {
	m.lastStatus = status
	m.lastNotes = notes
	return m.moved, m.moveErr
}

func (m *mockRequestRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockCatalog struct {
	types map[int64]*models.RequestType
}

func (m *mockCatalog) GetByID(ctx context.Context, id int64) (*models.RequestType, error) {
	rt, ok := m.types[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

type mockAssets struct {
	stored   []string
	deleted  []string
	storeErr error
	fail     bool
}

func (m *mockAssets) Store(bucket, originalName string, r io.Reader) (string, error) {
	if m.storeErr != nil {
		return "", m.storeErr
	}
	path := bucket + "/stored-" + originalName
	m.stored = append(m.stored, path)
	return path, nil
}

func (m *mockAssets) Delete(rel string) bool {
	m.deleted = append(m.deleted, rel)
	return !m.fail
}

func (m *mockAssets) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return "http://localhost:8080/storage/" + rel
}

func (m *mockAssets) StaticURL(name string) string {
	return "http://localhost:8080/static/" + name
}

type mockNotifier struct {
	recipients []int64
	titles     []string
	messages   []string
}

func (m *mockNotifier) Notify(ctx context.Context, recipientID int64, title, message string) {
	m.recipients = append(m.recipients, recipientID)
	m.titles = append(m.titles, title)
	m.messages = append(m.messages, message)
}

func standardCatalog() *mockCatalog {
	return &mockCatalog{types: map[int64]*models.RequestType{
		1: {ID: 1, Name: "Enrollment Proof", Price: decimal.NewFromInt(25), Category: models.RequestCategoryStandard},
		2: {ID: 2, Name: "Graduation Certificate", Price: decimal.NewFromInt(150), Category: models.RequestCategoryGraduation},
	}}
}

func testLimits() SubmitLimits {
	return SubmitLimits{MaxReceiptSize: 2 << 20, AllowedMIMEs: []string{"image/png", "image/jpeg"}}
}

func validSubmit() SubmitInput {
	return SubmitInput{
		FromHeader:    "app",
		RequestID:     1,
		Count:         3,
		StudentID:     "20231001",
		StudentNameEn: "Sara Ahmed",
		StudentNameAr: "سارة أحمد",
		Department:    "Computer Science",
		Receipt:       strings.NewReader("png-bytes"),
		ReceiptName:   "receipt.png",
		ReceiptSize:   1024,
		ReceiptMIME:   "image/png",
	}
}

func studentActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: 20231001, Type: models.UserTypeStudent}
}

func TestSubmitSuccess(t *testing.T) {
	repo := &mockRequestRepo{}
	assets := &mockAssets{}
	svc := NewStudentRequestService(repo, standardCatalog(), assets, &mockNotifier{}, testLimits(), nil)

	resp, err := svc.Submit(context.Background(), studentActor(), validSubmit())
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, 3, resp.Count)
	assert.True(t, resp.TotalPrice.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, models.RequestStatusPending, resp.Status)
	require.NotNil(t, resp.ReceiptImage)
	assert.Contains(t, *resp.ReceiptImage, "/storage/receipts/")
	assert.Equal(t, "Enrollment Proof", resp.RequestType.Name)
	require.NotNil(t, repo.created)
	assert.Equal(t, int64(20231001), repo.created.UserID)
}

func TestSubmitRejectsWebOrigin(t *testing.T) {
	svc := NewStudentRequestService(&mockRequestRepo{}, standardCatalog(), &mockAssets{}, &mockNotifier{}, testLimits(), nil)

	for _, from := range []string{"web", "WEB", ""} {
		in := validSubmit()
		in.FromHeader = from
		_, err := svc.Submit(context.Background(), studentActor(), in)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
}

func TestSubmitRejectsAdmin(t *testing.T) {
	svc := NewStudentRequestService(&mockRequestRepo{}, standardCatalog(), &mockAssets{}, &mockNotifier{}, testLimits(), nil)

	_, err := svc.Submit(context.Background(), &models.JWTClaims{UserID: 1, Type: models.UserTypeAdmin}, validSubmit())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmitValidationFieldMap(t *testing.T) {
	svc := NewStudentRequestService(&mockRequestRepo{}, standardCatalog(), &mockAssets{}, &mockNotifier{}, testLimits(), nil)

	in := validSubmit()
	in.RequestID = 99
	in.Count = 9
	in.StudentNameEn = ""
	in.Receipt = nil
	_, err := svc.Submit(context.Background(), studentActor(), in)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "request_id")
	assert.Contains(t, appErr.Fields, "count")
	assert.Contains(t, appErr.Fields, "student_name_en")
	assert.Contains(t, appErr.Fields, "receipt_image")
}

func TestSubmitRejectsOversizedReceipt(t *testing.T) {
	svc := NewStudentRequestService(&mockRequestRepo{}, standardCatalog(), &mockAssets{}, &mockNotifier{}, testLimits(), nil)

	in := validSubmit()
	in.ReceiptSize = 3 << 20
	_, err := svc.Submit(context.Background(), studentActor(), in)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "receipt_image")
}

func TestSubmitCategoryGate(t *testing.T) {
	svc := NewStudentRequestService(&mockRequestRepo{}, standardCatalog(), &mockAssets{}, &mockNotifier{}, testLimits(), nil)

	in := validSubmit()
	in.RequestID = 2
	_, err := svc.Submit(context.Background(), studentActor(), in)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	in = validSubmit()
	_, err = svc.Submit(context.Background(), &models.JWTClaims{UserID: 5, Type: models.UserTypeGraduate}, in)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmitGraduateCountForcedToOne(t *testing.T) {
	repo := &mockRequestRepo{}
	svc := NewStudentRequestService(repo, standardCatalog(), &mockAssets{}, &mockNotifier{}, testLimits(), nil)

	in := validSubmit()
	in.RequestID = 2
	in.Count = 5
	resp, err := svc.Submit(context.Background(), &models.JWTClaims{UserID: 5, Type: models.UserTypeGraduate}, in)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	assert.True(t, resp.TotalPrice.Equal(decimal.NewFromInt(150)))
}

func TestSubmitDuplicatePendingCleansUpReceipt(t *testing.T) {
	repo := &mockRequestRepo{createErr: &pq.Error{Code: "23505"}}
	assets := &mockAssets{}
	svc := NewStudentRequestService(repo, standardCatalog(), assets, &mockNotifier{}, testLimits(), nil)

	_, err := svc.Submit(context.Background(), studentActor(), validSubmit())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.Len(t, assets.stored, 1)
	assert.Equal(t, assets.stored, assets.deleted)
}

func TestApproveNotifiesOwner(t *testing.T) {
	repo := &mockRequestRepo{
		byID:  &models.StudentRequestDetail{StudentRequest: models.StudentRequest{ID: 7, UserID: 20231001, Status: models.RequestStatusPending}, TypeName: "Enrollment Proof"},
		moved: true,
	}
	notifier := &mockNotifier{}
	svc := NewStudentRequestService(repo, standardCatalog(), &mockAssets{}, notifier, testLimits(), nil)

	err := svc.Approve(context.Background(), 7, "2026-09-15")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, repo.lastStatus)
	assert.Equal(t, "Delivery date: 2026-09-15", repo.lastNotes)
	require.Len(t, notifier.recipients, 1)
	assert.Equal(t, int64(20231001), notifier.recipients[0])
	assert.Contains(t, notifier.messages[0], "Enrollment Proof")
	assert.Contains(t, notifier.messages[0], "2026-09-15")
}

func TestApproveRejectsBadDate(t *testing.T) {
	svc := NewStudentRequestService(&mockRequestRepo{}, standardCatalog(), &mockAssets{}, &mockNotifier{}, testLimits(), nil)

	err := svc.Approve(context.Background(), 7, "15-09-2026")
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "delivery_date")
}

func TestRejectRequiresReason(t *testing.T) {
	svc := NewStudentRequestService(&mockRequestRepo{}, standardCatalog(), &mockAssets{}, &mockNotifier{}, testLimits(), nil)

	err := svc.Reject(context.Background(), 7, "  ")
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "reason")
}

func TestTransitionAlreadyDecidedConflicts(t *testing.T) {
	repo := &mockRequestRepo{
		byID:  &models.StudentRequestDetail{StudentRequest: models.StudentRequest{ID: 7, UserID: 1, Status: models.RequestStatusApproved}, TypeName: "Enrollment Proof"},
		moved: false,
	}
	notifier := &mockNotifier{}
	svc := NewStudentRequestService(repo, standardCatalog(), &mockAssets{}, notifier, testLimits(), nil)

	err := svc.Reject(context.Background(), 7, "incomplete paperwork")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, notifier.recipients)
}

func TestTransitionUnknownID(t *testing.T) {
	repo := &mockRequestRepo{byIDErr: sql.ErrNoRows}
	svc := NewStudentRequestService(repo, standardCatalog(), &mockAssets{}, &mockNotifier{}, testLimits(), nil)

	err := svc.Approve(context.Background(), 999, "2026-09-15")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListOwnRejectsAdmin(t *testing.T) {
	svc := NewStudentRequestService(&mockRequestRepo{}, standardCatalog(), &mockAssets{}, &mockNotifier{}, testLimits(), nil)

	_, err := svc.ListOwn(context.Background(), &models.JWTClaims{UserID: 1, Type: models.UserTypeAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestGetPendingMapsMissingTo404(t *testing.T) {
	repo := &mockRequestRepo{pendingErr: sql.ErrNoRows}
	svc := NewStudentRequestService(repo, standardCatalog(), &mockAssets{}, &mockNotifier{}, testLimits(), nil)

	_, err := svc.GetPending(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteOwnershipAndStateChecks(t *testing.T) {
	owned := &models.StudentRequestDetail{StudentRequest: models.StudentRequest{ID: 7, UserID: 20231001, Status: models.RequestStatusPending, ReceiptImage: "receipts/r.png"}}
	repo := &mockRequestRepo{byID: owned}
	assets := &mockAssets{}
	svc := NewStudentRequestService(repo, standardCatalog(), assets, &mockNotifier{}, testLimits(), nil)

	// not the owner: behaves like missing
	err := svc.Delete(context.Background(), &models.JWTClaims{UserID: 999, Type: models.UserTypeStudent}, 7)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// not pending anymore
	owned.Status = models.RequestStatusApproved
	err = svc.Delete(context.Background(), studentActor(), 7)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// happy path removes receipt then row
	owned.Status = models.RequestStatusPending
	err = svc.Delete(context.Background(), studentActor(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"receipts/r.png"}, assets.deleted)
	assert.Equal(t, []int64{7}, repo.deleted)
}

func TestDeleteProceedsWhenReceiptRemovalFails(t *testing.T) {
	owned := &models.StudentRequestDetail{StudentRequest: models.StudentRequest{ID: 7, UserID: 20231001, Status: models.RequestStatusPending, ReceiptImage: "receipts/r.png"}}
	repo := &mockRequestRepo{byID: owned}
	assets := &mockAssets{fail: true}
	svc := NewStudentRequestService(repo, standardCatalog(), assets, &mockNotifier{}, testLimits(), nil)

	err := svc.Delete(context.Background(), studentActor(), 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, repo.deleted)
}

func TestExportRendersCSV(t *testing.T) {
	repo := &mockRequestRepo{byStatus: []models.StudentRequestDetail{
		{
			StudentRequest: models.StudentRequest{
				ID:            7,
				StudentID:     "20231001",
				StudentNameEn: "Sara Ahmed",
				Department:    "Computer Science",
				Count:         2,
				TotalPrice:    decimal.RequireFromString("50"),
				Status:        models.RequestStatusApproved,
				CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			},
			TypeName: "Transcript",
		},
	}}
	svc := NewStudentRequestService(repo, standardCatalog(), &mockAssets{}, &mockNotifier{}, testLimits(), nil)

	data, filename, err := svc.Export(context.Background(), models.RequestStatusApproved, export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "student-requests-approved.csv", filename)

	lines := strings.Split(strings.ReplaceAll(strings.TrimSpace(string(data)), "\r\n", "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,Student ID,Student Name,Department,Type,Count,Total Price,Status,Submitted", lines[0])
	assert.Equal(t, "7,20231001,Sara Ahmed,Computer Science,Transcript,2,50.00,approved,2026-03-01", lines[1])
}

func TestExportRejectsUnknownStatus(t *testing.T) {
	svc := NewStudentRequestService(&mockRequestRepo{}, standardCatalog(), &mockAssets{}, &mockNotifier{}, testLimits(), nil)

	_, _, err := svc.Export(context.Background(), models.RequestStatus("archived"), export.FormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
