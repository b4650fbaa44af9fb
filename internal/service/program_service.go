package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vinyareddy314/cms-go/internal/dto"
	"github.com/vinyareddy314/cms-go/internal/models"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
)

type programRepository interface {
	List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, error)
	FindByID(ctx context.Context, id string) (*models.Program, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
	SetTopics(ctx context.Context, programID string, topicIDs []int) error
	ListTopics(ctx context.Context, programID string) ([]models.Topic, error)
}

type programTermLister interface {
	ListByProgram(ctx context.Context, programID string) ([]models.Term, error)
}

type programLessonLister interface {
	ListByTermIDs(ctx context.Context, termIDs []string) ([]models.Lesson, error)
}

type posterLister interface {
	ListProgramPosters(ctx context.Context, programIDs []string) ([]models.ProgramAsset, error)
}

// CreateProgramRequest describes payload for creating programs.
type CreateProgramRequest struct {
	Title              string   `json:"title" validate:"required"`
	Description        *string  `json:"description"`
	PrimaryLanguage    string   `json:"language_primary" validate:"required"`
	LanguagesAvailable []string `json:"languages_available"`
	TopicIDs           []int    `json:"topic_ids"`
}

// UpdateProgramRequest patches editable program fields; nil means keep.
type UpdateProgramRequest struct {
	Title              *string  `json:"title"`
	Description        *string  `json:"description"`
	PrimaryLanguage    *string  `json:"language_primary"`
	LanguagesAvailable []string `json:"languages_available"`
	TopicIDs           []int    `json:"topic_ids"`
}

// ProgramService orchestrates CMS program workflows.
type ProgramService struct {
	programs  programRepository
	terms     programTermLister
	lessons   programLessonLister
	assets    posterLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService creates a new program service instance.
func NewProgramService(
	programs programRepository,
	terms programTermLister,
	lessons programLessonLister,
	assets posterLister,
	validate *validator.Validate,
	logger *zap.Logger,
) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{programs: programs, terms: terms, lessons: lessons, assets: assets, validator: validate, logger: logger}
}

// List returns programs decorated with poster previews.
func (s *ProgramService) List(ctx context.Context, filter models.ProgramFilter) ([]dto.ProgramSummary, error) {
	programs, err := s.programs.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}

	ids := make([]string, 0, len(programs))
	for _, p := range programs {
		ids = append(ids, p.ID)
	}
	postersByProgram, err := s.postersByProgram(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.ProgramSummary, 0, len(programs))
	for _, p := range programs {
		posters := postersByProgram[p.ID]
		if posters == nil {
			posters = models.AssetURLMap{}
		}
		summaries = append(summaries, dto.ProgramSummary{
			Program: p,
			Assets:  dto.CatalogAssetBundle{Posters: posters},
		})
	}
	return summaries, nil
}

// Get aggregates a program with its topics, posters, terms, and lessons.
func (s *ProgramService) Get(ctx context.Context, id string) (*dto.ProgramDetail, error) {
	program, err := s.programs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	topics, err := s.programs.ListTopics(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program topics")
	}

	postersByProgram, err := s.postersByProgram(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	posters := postersByProgram[id]
	if posters == nil {
		posters = models.AssetURLMap{}
	}

	terms, err := s.terms.ListByProgram(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load terms")
	}
	termIDs := make([]string, 0, len(terms))
	for _, t := range terms {
		termIDs = append(termIDs, t.ID)
	}
	lessons, err := s.lessons.ListByTermIDs(ctx, termIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	return &dto.ProgramDetail{
		Program: dto.ProgramWithTopics{
			Program: *program,
			Topics:  topics,
			Assets:  dto.CatalogAssetBundle{Posters: posters},
		},
		Terms:   terms,
		Lessons: lessons,
	}, nil
}

// Create adds a new draft program.
func (s *ProgramService) Create(ctx context.Context, req CreateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}

	languages := req.LanguagesAvailable
	if len(languages) == 0 {
		languages = []string{req.PrimaryLanguage}
	}
	if !containsString(languages, req.PrimaryLanguage) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "language_primary must be included in languages_available")
	}

	program := &models.Program{
		Title:              req.Title,
		Description:        req.Description,
		PrimaryLanguage:    req.PrimaryLanguage,
		LanguagesAvailable: languages,
	}
	if err := s.programs.Create(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}

	if len(req.TopicIDs) > 0 {
		if err := s.programs.SetTopics(ctx, program.ID, req.TopicIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach topics")
		}
	}
	return program, nil
}

// Patch merges updates onto the stored program.
func (s *ProgramService) Patch(ctx context.Context, id string, req UpdateProgramRequest) (*models.Program, error) {
	program, err := s.programs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	if req.Title != nil {
		program.Title = *req.Title
	}
	if req.Description != nil {
		program.Description = req.Description
	}
	if req.PrimaryLanguage != nil {
		program.PrimaryLanguage = *req.PrimaryLanguage
	}
	if req.LanguagesAvailable != nil {
		program.LanguagesAvailable = req.LanguagesAvailable
	}
	if !containsString(program.LanguagesAvailable, program.PrimaryLanguage) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "language_primary must be included in languages_available")
	}

	if err := s.programs.Update(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update program")
	}

	if req.TopicIDs != nil {
		if err := s.programs.SetTopics(ctx, program.ID, req.TopicIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update topics")
		}
	}
	return program, nil
}

func (s *ProgramService) postersByProgram(ctx context.Context, programIDs []string) (map[string]models.AssetURLMap, error) {
	assets, err := s.assets.ListProgramPosters(ctx, programIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load posters")
	}
	byProgram := make(map[string]models.AssetURLMap)
	for _, a := range assets {
		if byProgram[a.ProgramID] == nil {
			byProgram[a.ProgramID] = models.AssetURLMap{}
		}
		byProgram[a.ProgramID].Add(a.Language, string(a.Variant), a.URL)
	}
	return byProgram, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
