package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/portal-api/internal/service"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/response"
)

// PasswordHandler exposes the emailed-code password reset flow.
type PasswordHandler struct {
	service *service.PasswordResetService
}

// NewPasswordHandler creates a new handler.
func NewPasswordHandler(svc *service.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{service: svc}
}

type sendCodeRequest struct {
	Email string `json:"email"`
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resetPasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// SendCode godoc
// @Summary Email a password reset code
// @Tags Password
// @Accept json
// @Produce json
// @Param payload body sendCodeRequest true "Account email"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /password/send-code [post]
func (h *PasswordHandler) SendCode(c *gin.Context) {
	var req sendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.SendCode(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "a reset code has been sent to your email"})
}

// VerifyCode godoc
// @Summary Verify a password reset code
// @Tags Password
// @Accept json
// @Produce json
// @Param payload body verifyCodeRequest true "Email and code"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /password/verify-code [post]
func (h *PasswordHandler) VerifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.VerifyCode(c.Request.Context(), req.Email, req.Code); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "the code is valid"})
}

// Reset godoc
// @Summary Reset the password with an emailed code
// @Tags Password
// @Accept json
// @Produce json
// @Param payload body resetPasswordRequest true "Email, code and new password"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /password/reset [post]
func (h *PasswordHandler) Reset(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.Reset(c.Request.Context(), req.Email, req.Code, req.Password); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "your password has been reset"})
}
