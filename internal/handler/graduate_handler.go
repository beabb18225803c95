package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/portal-api/internal/service"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/response"
)

// GraduateHandler serves the public alumni directory.
type GraduateHandler struct {
	service *service.GraduateService
}

// NewGraduateHandler creates a new handler.
func NewGraduateHandler(svc *service.GraduateService) *GraduateHandler {
	return &GraduateHandler{service: svc}
}

// List godoc
// @Summary List graduates
// @Tags Graduates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /graduates [get]
func (h *GraduateHandler) List(c *gin.Context) {
	grads, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grads)
}

// Get godoc
// @Summary Read one graduate
// @Tags Graduates
// @Produce json
// @Param id path int true "Graduate id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /graduates/{id} [get]
func (h *GraduateHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "graduate not found"))
		return
	}
	grad, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grad)
}
