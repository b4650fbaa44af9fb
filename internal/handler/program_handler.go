package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vinyareddy314/cms-go/internal/models"
	"github.com/vinyareddy314/cms-go/internal/service"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
	"github.com/vinyareddy314/cms-go/pkg/response"
)

// ProgramHandler wires HTTP endpoints to program, asset, and export services.
type ProgramHandler struct {
	programs *service.ProgramService
	assets   *service.AssetService
	exports  *service.ExportService
}

// NewProgramHandler creates a new handler.
func NewProgramHandler(programs *service.ProgramService, assets *service.AssetService, exports *service.ExportService) *ProgramHandler {
	return &ProgramHandler{programs: programs, assets: assets, exports: exports}
}

// List godoc
// @Summary List programs
// @Description List programs for the CMS with optional status, language, and topic filters
// @Tags Programs
// @Produce json
// @Param status query string false "Program status"
// @Param language query string false "Primary language"
// @Param topic query string false "Topic name"
// @Success 200 {object} response.Envelope
// @Router /programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	filter := models.ProgramFilter{
		Status:          models.ProgramStatus(c.Query("status")),
		PrimaryLanguage: c.Query("language"),
		Topic:           c.Query("topic"),
	}

	programs, err := h.programs.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}

// Get godoc
// @Summary Get program detail
// @Description Program with topics, posters, terms, and all lessons regardless of status
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	detail, err := h.programs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create program
// @Tags Programs
// @Accept json
// @Produce json
// @Param payload body service.CreateProgramRequest true "Program payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /programs [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	var req service.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid program payload"))
		return
	}

	program, err := h.programs.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}

// Patch godoc
// @Summary Update program
// @Tags Programs
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body service.UpdateProgramRequest true "Program patch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id} [patch]
func (h *ProgramHandler) Patch(c *gin.Context) {
	var req service.UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid program payload"))
		return
	}

	program, err := h.programs.Patch(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// UpsertPoster godoc
// @Summary Attach program poster
// @Description Upsert a poster slot keyed by language and variant
// @Tags Programs
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body service.ProgramAssetRequest true "Poster payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id}/assets [put]
func (h *ProgramHandler) UpsertPoster(c *gin.Context) {
	var req service.ProgramAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid asset payload"))
		return
	}

	asset, err := h.assets.UpsertProgramAsset(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, asset, nil)
}

// DeletePoster godoc
// @Summary Remove program poster
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Param language query string true "Asset language"
// @Param variant query string true "Asset variant"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /programs/{id}/assets [delete]
func (h *ProgramHandler) DeletePoster(c *gin.Context) {
	err := h.assets.DeleteProgramAsset(c.Request.Context(), c.Param("id"), c.Query("language"), c.Query("variant"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export lesson manifest
// @Description Download the program's full lesson manifest as CSV or PDF
// @Tags Programs
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Program ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id}/export [get]
func (h *ProgramHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.exports.ProgramManifest(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
