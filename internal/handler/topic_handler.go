package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vinyareddy314/cms-go/internal/service"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
	"github.com/vinyareddy314/cms-go/pkg/response"
)

// TopicHandler wires HTTP endpoints to the topic service.
type TopicHandler struct {
	service *service.TopicService
}

// NewTopicHandler creates a new handler.
func NewTopicHandler(svc *service.TopicService) *TopicHandler {
	return &TopicHandler{service: svc}
}

// List godoc
// @Summary List topics
// @Tags Topics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /topics [get]
func (h *TopicHandler) List(c *gin.Context) {
	topics, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, topics, nil)
}

// Create godoc
// @Summary Create topic
// @Tags Topics
// @Accept json
// @Produce json
// @Param payload body object true "Topic name"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /topics [post]
func (h *TopicHandler) Create(c *gin.Context) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid topic payload"))
		return
	}

	topic, err := h.service.Create(c.Request.Context(), payload.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, topic)
}
