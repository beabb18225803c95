package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/portal-api/internal/service"
	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/response"
)

// FaqHandler serves the chatbot question list and answers.
type FaqHandler struct {
	service *service.FaqService
}

// NewFaqHandler creates a new handler.
func NewFaqHandler(svc *service.FaqService) *FaqHandler {
	return &FaqHandler{service: svc}
}

// Questions godoc
// @Summary List chatbot questions
// @Tags Chatbot
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /chatbot/questions [get]
func (h *FaqHandler) Questions(c *gin.Context) {
	questions, err := h.service.Questions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, questions)
}

// Answer godoc
// @Summary Answer a chatbot question
// @Tags Chatbot
// @Produce json
// @Param id path int true "Question id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /chatbot/questions/{id} [get]
func (h *FaqHandler) Answer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "question not found"))
		return
	}
	faq, err := h.service.Answer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faq)
}
