package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/portal-api/internal/service"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/response"
)

// ProfileHandler serves the authenticated profile and its photo.
type ProfileHandler struct {
	service *service.UserService
}

// NewProfileHandler creates a new handler.
func NewProfileHandler(svc *service.UserService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// Show godoc
// @Summary Current profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Show(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	profile, err := h.service.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile)
}

// UploadPhoto godoc
// @Summary Upload a profile photo
// @Description Replaces and deletes any previous photo
// @Tags Profile
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "Profile photo"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /profile/photo [post]
func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	file, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, appErrors.Validation(map[string][]string{
			"photo": {"the photo field is required"},
		}))
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer opened.Close() //nolint:errcheck

	url, err := h.service.UpdateProfilePhoto(c.Request.Context(), claims.UserID, file.Filename, opened)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"profile_photo_url": url})
}

// DeletePhoto godoc
// @Summary Delete the profile photo
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile/photo [delete]
func (h *ProfileHandler) DeletePhoto(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.DeleteProfilePhoto(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "profile photo removed"})
}
