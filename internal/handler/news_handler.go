package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/portal-api/internal/service"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/response"
)

// NewsHandler serves news reading and admin maintenance.
type NewsHandler struct {
	service *service.NewsService
}

// NewNewsHandler creates a new handler.
func NewNewsHandler(svc *service.NewsService) *NewsHandler {
	return &NewsHandler{service: svc}
}

func newsInput(c *gin.Context) (service.NewsInput, func()) {
	in := service.NewsInput{
		Title:   c.PostForm("title"),
		Content: c.PostForm("content"),
	}
	cleanup := func() {}
	if file, err := c.FormFile("image"); err == nil {
		if opened, err := file.Open(); err == nil {
			in.Image = opened
			in.ImageName = file.Filename
			cleanup = func() { opened.Close() } //nolint:errcheck
		}
	}
	return in, cleanup
}

// List godoc
// @Summary List news
// @Tags News
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /news [get]
func (h *NewsHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Get godoc
// @Summary Read one news item
// @Tags News
// @Produce json
// @Param id path int true "News id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /news/{id} [get]
func (h *NewsHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "news item not found"))
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Create godoc
// @Summary Publish a news item
// @Description Fans a notification out to students and graduates
// @Tags News
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param content formData string true "Body"
// @Param image formData file false "Illustration"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/news [post]
func (h *NewsHandler) Create(c *gin.Context) {
	in, cleanup := newsInput(c)
	defer cleanup()

	item, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Edit a news item
// @Tags News
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "News id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/news/{id} [put]
func (h *NewsHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "news item not found"))
		return
	}
	in, cleanup := newsInput(c)
	defer cleanup()

	item, err := h.service.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Delete godoc
// @Summary Delete a news item
// @Tags News
// @Produce json
// @Param id path int true "News id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/news/{id} [delete]
func (h *NewsHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "news item not found"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "news item deleted"})
}
