package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vinyareddy314/cms-go/internal/service"
	"github.com/vinyareddy314/cms-go/pkg/response"
)

// CatalogHandler serves the public, read-only content surface.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListPrograms godoc
// @Summary List public programs
// @Description Programs with at least one published lesson, ordered by most recent lesson publication
// @Tags Catalog
// @Produce json
// @Param language query string false "Primary language"
// @Param topic query string false "Topic name"
// @Param cursor query string false "Opaque pagination cursor"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /catalog/programs [get]
func (h *CatalogHandler) ListPrograms(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	query := service.CatalogQuery{
		Language: c.Query("language"),
		Topic:    c.Query("topic"),
		Cursor:   c.Query("cursor"),
		Limit:    limit,
	}

	page, err := h.service.ListPrograms(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, nil)
}

// GetProgram godoc
// @Summary Get public program
// @Description Program page with published lessons only. Programs without published lessons 404.
// @Tags Catalog
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /catalog/programs/{id} [get]
func (h *CatalogHandler) GetProgram(c *gin.Context) {
	detail, err := h.service.GetProgram(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// GetLesson godoc
// @Summary Get public lesson
// @Tags Catalog
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /catalog/lessons/{id} [get]
func (h *CatalogHandler) GetLesson(c *gin.Context) {
	lesson, err := h.service.GetLesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}
