package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/portal-api/internal/service"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/response"
)

// StudentRequestHandler exposes the student-facing request workflow.
type StudentRequestHandler struct {
	service *service.StudentRequestService
}

// NewStudentRequestHandler creates a new handler.
func NewStudentRequestHandler(svc *service.StudentRequestService) *StudentRequestHandler {
	return &StudentRequestHandler{service: svc}
}

// Submit godoc
// @Summary Submit a student request
// @Description Submit a paid document request with a payment receipt image
// @Tags Student Requests
// @Accept multipart/form-data
// @Produce json
// @Param X-From header string true "Client origin, must not be web"
// @Param request_id formData int true "Catalog entry id"
// @Param count formData int true "Number of copies (1-5)"
// @Param student_id formData string true "Student number"
// @Param student_name_en formData string true "Name in English"
// @Param student_name_ar formData string true "Name in Arabic"
// @Param department formData string true "Department"
// @Param receipt_image formData file true "Payment receipt image"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /student-requests [post]
func (h *StudentRequestHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	in := service.SubmitInput{
		FromHeader:    c.GetHeader("X-From"),
		StudentID:     c.PostForm("student_id"),
		StudentNameEn: c.PostForm("student_name_en"),
		StudentNameAr: c.PostForm("student_name_ar"),
		Department:    c.PostForm("department"),
	}
	in.RequestID, _ = strconv.ParseInt(c.PostForm("request_id"), 10, 64)
	in.Count, _ = strconv.Atoi(c.PostForm("count"))

	if file, err := c.FormFile("receipt_image"); err == nil {
		opened, err := file.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read receipt upload"))
			return
		}
		defer opened.Close() //nolint:errcheck
		in.Receipt = opened
		in.ReceiptName = file.Filename
		in.ReceiptSize = file.Size
		in.ReceiptMIME = file.Header.Get("Content-Type")
	}

	res, err := h.service.Submit(c.Request.Context(), claims, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ListOwn godoc
// @Summary List own requests
// @Tags Student Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /student-requests [get]
func (h *StudentRequestHandler) ListOwn(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	views, err := h.service.ListOwn(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views)
}

// Delete godoc
// @Summary Delete a pending request
// @Tags Student Requests
// @Produce json
// @Param id path int true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student-requests/{id} [delete]
func (h *StudentRequestHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "student request not found"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims, id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "request deleted"})
}
