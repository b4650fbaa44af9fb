package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"

	"github.com/vinyareddy314/cms-go/internal/models"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
)

type assetRepository interface {
	UpsertLessonAsset(ctx context.Context, asset *models.LessonAsset) error
	DeleteLessonAsset(ctx context.Context, lessonID, language string, variant models.AssetVariant, kind models.LessonAssetKind) error
	UpsertProgramAsset(ctx context.Context, asset *models.ProgramAsset) error
	DeleteProgramAsset(ctx context.Context, programID, language string, variant models.AssetVariant) error
}

type assetLessonFinder interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
}

// LessonAssetRequest describes an upsert of one lesson asset slot.
type LessonAssetRequest struct {
	Language string `json:"language"`
	Variant  string `json:"variant"`
	Kind     string `json:"asset_type"`
	URL      string `json:"url"`
}

// ProgramAssetRequest describes an upsert of one program poster slot.
type ProgramAssetRequest struct {
	Language string `json:"language"`
	Variant  string `json:"variant"`
	URL      string `json:"url"`
}

// AssetService manages artwork and subtitle attachments. Slots are keyed by
// (owner, language, variant, kind); repeated uploads replace the URL.
type AssetService struct {
	assets   assetRepository
	lessons  assetLessonFinder
	programs catalogProgramFinder
}

// NewAssetService creates a new asset service instance.
func NewAssetService(assets assetRepository, lessons assetLessonFinder, programs catalogProgramFinder) *AssetService {
	return &AssetService{assets: assets, lessons: lessons, programs: programs}
}

// UpsertLessonAsset attaches or replaces a lesson asset.
func (s *AssetService) UpsertLessonAsset(ctx context.Context, lessonID string, req LessonAssetRequest) (*models.LessonAsset, error) {
	if err := validateAssetSlot(req.Language, req.Variant, req.URL); err != nil {
		return nil, err
	}
	if !models.ValidLessonAssetKind(req.Kind) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "asset_type must be thumbnail or subtitle")
	}
	if _, err := s.lessons.FindByID(ctx, lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	asset := &models.LessonAsset{
		LessonID: lessonID,
		Language: req.Language,
		Variant:  models.AssetVariant(req.Variant),
		Kind:     models.LessonAssetKind(req.Kind),
		URL:      req.URL,
	}
	if err := s.assets.UpsertLessonAsset(ctx, asset); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save lesson asset")
	}
	return asset, nil
}

// DeleteLessonAsset removes one lesson asset slot if present.
func (s *AssetService) DeleteLessonAsset(ctx context.Context, lessonID, language, variant, kind string) error {
	if !models.ValidAssetVariant(variant) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown asset variant")
	}
	if !models.ValidLessonAssetKind(kind) {
		return appErrors.Clone(appErrors.ErrValidation, "asset_type must be thumbnail or subtitle")
	}
	if err := s.assets.DeleteLessonAsset(ctx, lessonID, language, models.AssetVariant(variant), models.LessonAssetKind(kind)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson asset")
	}
	return nil
}

// UpsertProgramAsset attaches or replaces a program poster.
func (s *AssetService) UpsertProgramAsset(ctx context.Context, programID string, req ProgramAssetRequest) (*models.ProgramAsset, error) {
	if err := validateAssetSlot(req.Language, req.Variant, req.URL); err != nil {
		return nil, err
	}
	if _, err := s.programs.FindByID(ctx, programID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	asset := &models.ProgramAsset{
		ProgramID: programID,
		Language:  req.Language,
		Variant:   models.AssetVariant(req.Variant),
		Kind:      models.ProgramAssetPoster,
		URL:       req.URL,
	}
	if err := s.assets.UpsertProgramAsset(ctx, asset); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save program asset")
	}
	return asset, nil
}

// DeleteProgramAsset removes one poster slot if present.
func (s *AssetService) DeleteProgramAsset(ctx context.Context, programID, language, variant string) error {
	if !models.ValidAssetVariant(variant) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown asset variant")
	}
	if err := s.assets.DeleteProgramAsset(ctx, programID, language, models.AssetVariant(variant)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete program asset")
	}
	return nil
}

func validateAssetSlot(language, variant, rawURL string) error {
	if language == "" {
		return appErrors.Clone(appErrors.ErrValidation, "language is required")
	}
	if !models.ValidAssetVariant(variant) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown asset variant")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return appErrors.Clone(appErrors.ErrValidation, "url must be absolute")
	}
	return nil
}
