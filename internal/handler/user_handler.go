package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/portal-api/internal/service"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/response"
)

// UserHandler covers admin account management.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new handler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

type createUserRequest struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	PersonalEmail string `json:"personal_email"`
	PhoneNumber   string `json:"phone_number"`
	Type          string `json:"type"`
	Major         string `json:"major"`
	Password      string `json:"password"`
}

// CreateUser godoc
// @Summary Create a student or graduate account
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body createUserRequest true "Account payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/create-user [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid user payload"))
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), service.CreateUserInput{
		ID:            req.ID,
		Name:          req.Name,
		Email:         req.Email,
		PersonalEmail: req.PersonalEmail,
		PhoneNumber:   req.PhoneNumber,
		Type:          req.Type,
		Major:         req.Major,
		Password:      req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

type createAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateAdmin godoc
// @Summary Create an admin account
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body createAdminRequest true "Admin payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/create-admin [post]
func (h *UserHandler) CreateAdmin(c *gin.Context) {
	var req createAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid admin payload"))
		return
	}

	user, err := h.service.CreateAdmin(c.Request.Context(), service.CreateAdminInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

type changeTypeRequest struct {
	Type string `json:"type"`
}

// ChangeType godoc
// @Summary Switch an account between student and graduate
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User id"
// @Param payload body changeTypeRequest true "Target type"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/change-user-type/{id} [patch]
func (h *UserHandler) ChangeType(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "user not found"))
		return
	}
	var req changeTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.ChangeType(c.Request.Context(), id, req.Type); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "user type updated"})
}

// Import godoc
// @Summary Bulk import users from xlsx
// @Tags Users
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx workbook with id, name, email, phone columns"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/import-users [post]
func (h *UserHandler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Validation(map[string][]string{
			"file": {"the file field is required"},
		}))
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer opened.Close() //nolint:errcheck

	result, err := h.service.ImportUsers(c.Request.Context(), opened)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
