package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/portal-api/internal/service"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/response"
)

// RequestTypeHandler manages the priced request catalog.
type RequestTypeHandler struct {
	service *service.RequestTypeService
}

// NewRequestTypeHandler creates a new handler.
func NewRequestTypeHandler(svc *service.RequestTypeService) *RequestTypeHandler {
	return &RequestTypeHandler{service: svc}
}

// List godoc
// @Summary List catalog entries
// @Tags Request Types
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /request-types [get]
func (h *RequestTypeHandler) List(c *gin.Context) {
	types, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types)
}

// Get godoc
// @Summary Get a catalog entry
// @Tags Request Types
// @Produce json
// @Param id path int true "Catalog entry id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/request-types/{id} [get]
func (h *RequestTypeHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "request type not found"))
		return
	}

	rt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rt)
}

// Create godoc
// @Summary Create a catalog entry
// @Tags Request Types
// @Accept json
// @Produce json
// @Param payload body service.RequestTypeInput true "Catalog entry"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/request-types [post]
func (h *RequestTypeHandler) Create(c *gin.Context) {
	var in service.RequestTypeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request type payload"))
		return
	}

	rt, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rt)
}

// Update godoc
// @Summary Update a catalog entry
// @Tags Request Types
// @Accept json
// @Produce json
// @Param id path int true "Catalog entry id"
// @Param payload body service.RequestTypeInput true "Catalog entry"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/request-types/{id} [put]
func (h *RequestTypeHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "request type not found"))
		return
	}
	var in service.RequestTypeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request type payload"))
		return
	}

	rt, err := h.service.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rt)
}

// Delete godoc
// @Summary Delete a catalog entry
// @Tags Request Types
// @Produce json
// @Param id path int true "Catalog entry id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/request-types/{id} [delete]
func (h *RequestTypeHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "request type not found"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "request type deleted"})
}
