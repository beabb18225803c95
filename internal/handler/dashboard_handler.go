package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/portal-api/internal/service"
	"github.com/uniportal/portal-api/pkg/response"
)

// DashboardHandler serves the admin dashboard and the student home page.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Admin godoc
// @Summary Admin dashboard
// @Description Latest events plus request status percentages, cached briefly
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	resp, err := h.service.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Refresh godoc
// @Summary Clear the cached dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard/refresh [post]
func (h *DashboardHandler) Refresh(c *gin.Context) {
	if err := h.service.Refresh(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "dashboard cache cleared"})
}

// Home godoc
// @Summary Student home page
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student-home [get]
func (h *DashboardHandler) Home(c *gin.Context) {
	resp, err := h.service.StudentHome(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}
