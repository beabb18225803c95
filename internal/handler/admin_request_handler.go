package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/portal-api/internal/models"
	"github.com/uniportal/portal-api/internal/service"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/export"
	"github.com/uniportal/portal-api/pkg/response"
)

// AdminRequestHandler exposes the admin review surface for student
// requests.
type AdminRequestHandler struct {
	service *service.StudentRequestService
}

// NewAdminRequestHandler creates a new handler.
func NewAdminRequestHandler(svc *service.StudentRequestService) *AdminRequestHandler {
	return &AdminRequestHandler{service: svc}
}

// pathStatus maps the public path segment onto the stored status. The
// admin UI says "accepted" where the database says "approved".
func pathStatus(segment string) (models.RequestStatus, bool) {
	switch segment {
	case "pending":
		return models.RequestStatusPending, true
	case "accepted":
		return models.RequestStatusApproved, true
	case "rejected":
		return models.RequestStatusRejected, true
	default:
		return "", false
	}
}

// ListByStatus godoc
// @Summary List requests by status
// @Tags Admin Requests
// @Produce json
// @Param status path string true "pending, accepted or rejected"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/student-requests/{status} [get]
func (h *AdminRequestHandler) ListByStatus(c *gin.Context) {
	status, ok := pathStatus(c.Param("status"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown request status"))
		return
	}

	views, err := h.service.ListByStatus(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views)
}

// GetPending godoc
// @Summary Inspect one pending request
// @Description A request that has already been decided responds 404
// @Tags Admin Requests
// @Produce json
// @Param id path int true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/student-requests/pending/{id} [get]
func (h *AdminRequestHandler) GetPending(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "student request not found"))
		return
	}

	view, err := h.service.GetPending(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Export godoc
// @Summary Export requests by status
// @Tags Admin Requests
// @Produce text/csv
// @Produce application/pdf
// @Param status path string true "pending, accepted or rejected"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/student-requests/{status}/export [get]
func (h *AdminRequestHandler) Export(c *gin.Context) {
	status, ok := pathStatus(c.Param("status"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown request status"))
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Validation(map[string][]string{
			"format": {"the format must be csv or pdf"},
		}))
		return
	}

	data, filename, err := h.service.Export(c.Request.Context(), status, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), data)
}

type approveRequest struct {
	DeliveryDate string `json:"delivery_date"`
}

// Approve godoc
// @Summary Approve a pending request
// @Tags Admin Requests
// @Accept json
// @Produce json
// @Param id path int true "Request id"
// @Param payload body approveRequest true "Delivery date"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/student-requests/{id}/accept [patch]
func (h *AdminRequestHandler) Approve(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "student request not found"))
		return
	}
	// An absent body is the same as an empty payload; the field
	// validation answers with a 422 either way.
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}

	if err := h.service.Approve(c.Request.Context(), id, req.DeliveryDate); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "request approved"})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject godoc
// @Summary Reject a pending request
// @Tags Admin Requests
// @Accept json
// @Produce json
// @Param id path int true "Request id"
// @Param payload body rejectRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/student-requests/{id}/reject [patch]
func (h *AdminRequestHandler) Reject(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "student request not found"))
		return
	}
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rejection payload"))
		return
	}

	if err := h.service.Reject(c.Request.Context(), id, req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "request rejected"})
}
