package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	"github.com/vinyareddy314/cms-go/internal/models"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
)

type termRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	ListByProgram(ctx context.Context, programID string) ([]models.Term, error)
	Create(ctx context.Context, term *models.Term) error
	Update(ctx context.Context, term *models.Term) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type termProgramFinder interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

// CreateTermRequest describes payload for creating terms.
type CreateTermRequest struct {
	ProgramID  string  `json:"program_id" validate:"required"`
	TermNumber int     `json:"term_number" validate:"required,min=1"`
	Title      *string `json:"title"`
}

// UpdateTermRequest patches editable term fields; nil means keep.
type UpdateTermRequest struct {
	TermNumber *int    `json:"term_number"`
	Title      *string `json:"title"`
}

// TermService manages terms under programs.
type TermService struct {
	terms     termRepository
	programs  termProgramFinder
	validator *validator.Validate
}

// NewTermService creates a new term service instance.
func NewTermService(terms termRepository, programs termProgramFinder, validate *validator.Validate) *TermService {
	if validate == nil {
		validate = validator.New()
	}
	return &TermService{terms: terms, programs: programs, validator: validate}
}

// ListByProgram returns a program's terms ordered by term number.
func (s *TermService) ListByProgram(ctx context.Context, programID string) ([]models.Term, error) {
	terms, err := s.terms.ListByProgram(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, nil
}

// Create adds a term to an existing program.
func (s *TermService) Create(ctx context.Context, req CreateTermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}

	if _, err := s.programs.FindByID(ctx, req.ProgramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	term := &models.Term{
		ProgramID:  req.ProgramID,
		TermNumber: req.TermNumber,
		Title:      req.Title,
	}
	if err := s.terms.Create(ctx, term); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "term number already exists in this program")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term")
	}
	return term, nil
}

// Patch merges updates onto the stored term.
func (s *TermService) Patch(ctx context.Context, id string, req UpdateTermRequest) (*models.Term, error) {
	term, err := s.terms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	if req.TermNumber != nil {
		if *req.TermNumber < 1 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "term_number must be positive")
		}
		term.TermNumber = *req.TermNumber
	}
	if req.Title != nil {
		term.Title = req.Title
	}

	updated, err := s.terms.Update(ctx, term)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "term number already exists in this program")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update term")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
	}
	return term, nil
}

// Delete removes an empty term. Lessons still referencing it fail the FK.
func (s *TermService) Delete(ctx context.Context, id string) error {
	deleted, err := s.terms.Delete(ctx, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "term still has lessons")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete term")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "term not found")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
