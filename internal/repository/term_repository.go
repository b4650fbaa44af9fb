package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vinyareddy314/cms-go/internal/models"
)

// TermRepository handles persistence for program terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository instantiates a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// FindByID loads a term by identifier.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	const query = `SELECT id, program_id, term_number, title, created_at FROM terms WHERE id = $1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// ListByProgram returns the program's terms ordered by term number.
func (r *TermRepository) ListByProgram(ctx context.Context, programID string) ([]models.Term, error) {
	const query = `SELECT id, program_id, term_number, title, created_at FROM terms WHERE program_id = $1 ORDER BY term_number ASC`
	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query, programID); err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return terms, nil
}

// Create inserts a new term record.
func (r *TermRepository) Create(ctx context.Context, term *models.Term) error {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	if term.CreatedAt.IsZero() {
		term.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO terms (id, program_id, term_number, title, created_at)
VALUES (:id, :program_id, :term_number, :title, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("create term: %w", err)
	}
	return nil
}

// Update modifies term number and title.
func (r *TermRepository) Update(ctx context.Context, term *models.Term) (bool, error) {
	const query = `UPDATE terms SET term_number = :term_number, title = :title WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, term)
	if err != nil {
		return false, fmt.Errorf("update term: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update term rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a term; lessons cascade at the schema level.
func (r *TermRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM terms WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete term: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete term rows: %w", err)
	}
	return affected > 0, nil
}

// ProgramIDForTerm resolves the owning program inside the caller's
// transaction so the cascade commits atomically with the lesson update.
func (r *TermRepository) ProgramIDForTerm(ctx context.Context, tx *sqlx.Tx, termID string) (string, error) {
	var programID string
	if err := tx.GetContext(ctx, &programID, `SELECT program_id FROM terms WHERE id = $1`, termID); err != nil {
		return "", err
	}
	return programID, nil
}
