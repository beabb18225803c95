package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/portal-api/internal/service"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/response"
)

// EventHandler serves event reading and admin maintenance.
type EventHandler struct {
	service *service.EventService
}

// NewEventHandler creates a new handler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{service: svc}
}

func eventInput(c *gin.Context) (service.EventInput, func()) {
	in := service.EventInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		StartTime:   c.PostForm("start_time"),
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
// @Summary List events
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Get godoc
// @Summary Read one event
// @Tags Events
// @Produce json
// @Param id path int true "Event id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "event not found"))
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
// @Summary Publish an event
// @Description Fans a notification out to students and graduates
// @Tags Events
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param start_time formData string true "Start time"
// @Param image formData file false "Poster"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/events [post]
func (h *EventHandler) Create(c *gin.Context) {
	in, cleanup := eventInput(c)
	defer cleanup()

	item, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Edit an event
// @Tags Events
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Event id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "event not found"))
		return
	}
	in, cleanup := eventInput(c)
	defer cleanup()

	item, err := h.service.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Delete godoc
// @Summary Delete an event
// @Tags Events
// @Produce json
// @Param id path int true "Event id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "event not found"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "event deleted"})
}
