package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vinyareddy314/cms-go/internal/dto"
	"github.com/vinyareddy314/cms-go/internal/models"
	"github.com/vinyareddy314/cms-go/internal/service"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
	"github.com/vinyareddy314/cms-go/pkg/response"
)

// LessonHandler wires HTTP endpoints to the lesson and asset services.
type LessonHandler struct {
	lessons *service.LessonService
	assets  *service.AssetService
	catalog *service.CatalogService
}

// NewLessonHandler creates a new handler.
func NewLessonHandler(lessons *service.LessonService, assets *service.AssetService, catalog *service.CatalogService) *LessonHandler {
	return &LessonHandler{lessons: lessons, assets: assets, catalog: catalog}
}

// Get godoc
// @Summary Get lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	lesson, err := h.lessons.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Create godoc
// @Summary Create lesson
// @Description Create a draft lesson under a term
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body service.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req service.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}

	lesson, err := h.lessons.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Patch godoc
// @Summary Update lesson
// @Description Update editable lesson fields. Status and publication timestamps only move through the status endpoint.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.UpdateLessonRequest true "Lesson patch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id} [patch]
func (h *LessonHandler) Patch(c *gin.Context) {
	var req service.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}

	lesson, err := h.lessons.Patch(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// UpdateStatus godoc
// @Summary Apply lesson status action
// @Description Apply schedule, publish_now, or archive to a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body dto.StatusActionRequest true "Status action"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /lessons/{id}/status [post]
func (h *LessonHandler) UpdateStatus(c *gin.Context) {
	var req dto.StatusActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	lesson, err := h.lessons.ApplyStatusAction(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Published and archived lessons change what the public index shows.
	if h.catalog != nil && lesson.Status != models.LessonStatusScheduled {
		h.catalog.InvalidateProgramPages(c.Request.Context())
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// UpsertAsset godoc
// @Summary Attach lesson asset
// @Description Upsert a thumbnail or subtitle slot keyed by language, variant, and kind
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.LessonAssetRequest true "Asset payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id}/assets [put]
func (h *LessonHandler) UpsertAsset(c *gin.Context) {
	var req service.LessonAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid asset payload"))
		return
	}

	asset, err := h.assets.UpsertLessonAsset(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, asset, nil)
}

// DeleteAsset godoc
// @Summary Remove lesson asset
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Param language query string true "Asset language"
// @Param variant query string true "Asset variant"
// @Param asset_type query string true "thumbnail or subtitle"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lessons/{id}/assets [delete]
func (h *LessonHandler) DeleteAsset(c *gin.Context) {
	err := h.assets.DeleteLessonAsset(c.Request.Context(),
		c.Param("id"), c.Query("language"), c.Query("variant"), c.Query("asset_type"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
