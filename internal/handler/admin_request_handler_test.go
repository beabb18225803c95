package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniportal/portal-api/internal/middleware"
	"github.com/uniportal/portal-api/internal/models"
	"github.com/uniportal/portal-api/internal/service"
)

type requestRepoMock struct {
	byStatus     []models.StudentRequestDetail
	lastStatus   models.RequestStatus
	moved        bool
	detail       *models.StudentRequestDetail
	detailErr    error
	transitioned []models.RequestStatus
}

func (m *requestRepoMock) Create(ctx context.Context, req *models.StudentRequest) error {
	req.ID = 1
	return nil
}

func (m *requestRepoMock) ListByUser(ctx context.Context, userID int64) ([]models.StudentRequestDetail, error) {
	return nil, nil
}

func (m *requestRepoMock) ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.StudentRequestDetail, error) {
	m.lastStatus = status
	return m.byStatus, nil
}

func (m *requestRepoMock) GetByID(ctx context.Context, id int64) (*models.StudentRequestDetail, error) {
	if m.detailErr != nil {
		return nil, m.detailErr
	}
	return m.detail, nil
}

func (m *requestRepoMock) GetPendingByID(ctx context.Context, id int64) (*models.StudentRequestDetail, error) {
	if m.detailErr != nil {
		return nil, m.detailErr
	}
	return m.detail, nil
}

func (m *requestRepoMock) TransitionFromPending(ctx context.Context, id int64, status models.RequestStatus, notes string) (bool, error) {
	m.transitioned = append(m.transitioned, status)
	return m.moved, nil
}

func (m *requestRepoMock) Delete(ctx context.Context, id int64) error {
	return nil
}

type catalogMock struct{}

func (catalogMock) GetByID(ctx context.Context, id int64) (*models.RequestType, error) {
	return &models.RequestType{ID: id, Name: "Enrollment Proof", Price: decimal.NewFromInt(25), Category: models.RequestCategoryStandard}, nil
}

type assetsMock struct{}

func (assetsMock) Store(bucket, originalName string, r io.Reader) (string, error) {
	return bucket + "/x.png", nil
}
func (assetsMock) Delete(rel string) bool { return true }
func (assetsMock) URL(rel string) string  { return "http://localhost/storage/" + rel }

type notifierMock struct{ notified []int64 }

func (m *notifierMock) Notify(ctx context.Context, recipientID int64, title, message string) {
	m.notified = append(m.notified, recipientID)
}

func newRequestService(repo *requestRepoMock, notifier *notifierMock) *service.StudentRequestService {
	return service.NewStudentRequestService(repo, catalogMock{}, assetsMock{}, notifier,
		service.SubmitLimits{MaxReceiptSize: 2 << 20, AllowedMIMEs: []string{"image/png"}}, nil)
}

func TestListByStatusMapsAcceptedSegment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &requestRepoMock{}
	handler := NewAdminRequestHandler(newRequestService(repo, &notifierMock{}))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/admin/student-requests/accepted", nil)
	c.Params = gin.Params{{Key: "status", Value: "accepted"}}

	handler.ListByStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RequestStatusApproved, repo.lastStatus)
}

func TestListByStatusUnknownSegment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAdminRequestHandler(newRequestService(&requestRepoMock{}, &notifierMock{}))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/admin/student-requests/archived", nil)
	c.Params = gin.Params{{Key: "status", Value: "archived"}}

	handler.ListByStatus(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApproveHappyPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &requestRepoMock{
		moved: true,
		detail: &models.StudentRequestDetail{
			StudentRequest: models.StudentRequest{ID: 7, UserID: 20231001, Status: models.RequestStatusPending},
			TypeName:       "Enrollment Proof",
		},
	}
	notifier := &notifierMock{}
	handler := NewAdminRequestHandler(newRequestService(repo, notifier))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(map[string]string{"delivery_date": "2026-09-15"})
	c.Request, _ = http.NewRequest(http.MethodPatch, "/admin/student-requests/7/accept", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.RequestStatus{models.RequestStatusApproved}, repo.transitioned)
	assert.Equal(t, []int64{20231001}, notifier.notified)
}

func TestRejectAlreadyDecidedConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &requestRepoMock{
		moved: false,
		detail: &models.StudentRequestDetail{
			StudentRequest: models.StudentRequest{ID: 7, UserID: 20231001, Status: models.RequestStatusApproved},
			TypeName:       "Enrollment Proof",
		},
	}
	handler := NewAdminRequestHandler(newRequestService(repo, &notifierMock{}))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(map[string]string{"reason": "incomplete paperwork"})
	c.Request, _ = http.NewRequest(http.MethodPatch, "/admin/student-requests/7/reject", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Reject(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDecisionRoutesAcceptPatchVerb(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &requestRepoMock{
		moved: true,
		detail: &models.StudentRequestDetail{
			StudentRequest: models.StudentRequest{ID: 7, UserID: 20231001, Status: models.RequestStatusPending},
			TypeName:       "Enrollment Proof",
		},
	}
	handler := NewAdminRequestHandler(newRequestService(repo, &notifierMock{}))

	r := gin.New()
	r.PATCH("/admin/student-requests/:id/accept", handler.Approve)

	body, _ := json.Marshal(map[string]string{"delivery_date": "2026-09-15"})
	req, _ := http.NewRequest(http.MethodPatch, "/admin/student-requests/7/accept", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.RequestStatus{models.RequestStatusApproved}, repo.transitioned)
}

func TestApproveWithoutBodyFailsFieldValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAdminRequestHandler(newRequestService(&requestRepoMock{}, &notifierMock{}))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPatch, "/admin/student-requests/7/accept", bytes.NewReader(nil))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Approve(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "delivery_date")
}

func TestRejectWithoutBodyFailsFieldValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAdminRequestHandler(newRequestService(&requestRepoMock{}, &notifierMock{}))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPatch, "/admin/student-requests/7/reject", bytes.NewReader(nil))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Reject(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "reason")
}

func TestSubmitRejectsWebOriginOverHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewStudentRequestHandler(newRequestService(&requestRepoMock{}, &notifierMock{}))

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("request_id", "1"))
	require.NoError(t, form.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/student-requests", &buf)
	c.Request.Header.Set("Content-Type", form.FormDataContentType())
	c.Request.Header.Set("X-From", "web")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 20231001, Type: models.UserTypeStudent})

	handler.Submit(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubmitValidationOverHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewStudentRequestHandler(newRequestService(&requestRepoMock{}, &notifierMock{}))

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("request_id", "1"))
	require.NoError(t, form.WriteField("count", "3"))
	require.NoError(t, form.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/student-requests", &buf)
	c.Request.Header.Set("Content-Type", form.FormDataContentType())
	c.Request.Header.Set("X-From", "app")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 20231001, Type: models.UserTypeStudent})

	handler.Submit(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeleteRejectsBadID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewStudentRequestHandler(newRequestService(&requestRepoMock{}, &notifierMock{}))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodDelete, "/student-requests/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 20231001, Type: models.UserTypeStudent})

	handler.Delete(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
