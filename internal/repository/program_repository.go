package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vinyareddy314/cms-go/internal/models"
)

const programColumns = `id, title, description, language_primary, languages_available, status, published_at, created_at, updated_at`

// ProgramRepository handles persistence for programs.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository instantiates a program repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// List returns programs matching the provided filters, newest update first.
func (r *ProgramRepository) List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, error) {
	base := fmt.Sprintf("SELECT %s FROM programs p", prefixColumns("p", programColumns))
	var conditions []string
	var args []interface{}

	if filter.Topic != "" {
		base += ` JOIN program_topics pt ON pt.program_id = p.id JOIN topics t ON t.id = pt.topic_id`
		conditions = append(conditions, fmt.Sprintf("t.name = $%d", len(args)+1))
		args = append(args, filter.Topic)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.PrimaryLanguage != "" {
		conditions = append(conditions, fmt.Sprintf("p.language_primary = $%d", len(args)+1))
		args = append(args, filter.PrimaryLanguage)
	}

	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}
	base += " ORDER BY p.updated_at DESC"

	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, base, args...); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// FindByID loads a program by identifier.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	query := fmt.Sprintf(`SELECT %s FROM programs WHERE id = $1`, programColumns)
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		return nil, err
	}
	return &program, nil
}

// Create inserts a new program in draft status.
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now
	if program.Status == "" {
		program.Status = models.ProgramStatusDraft
	}

	const query = `INSERT INTO programs (id, title, description, language_primary, languages_available, status, created_at, updated_at)
VALUES (:id, :title, :description, :language_primary, :languages_available, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// Update rewrites the editable program fields.
func (r *ProgramRepository) Update(ctx context.Context, program *models.Program) error {
	program.UpdatedAt = time.Now().UTC()
	const query = `UPDATE programs SET title = :title, description = :description,
language_primary = :language_primary, languages_available = :languages_available,
updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return nil
}

// AutoPublish cascades a lesson publication to the owning program. Archived
// programs are left alone, and published_at is first-publish-wins.
func (r *ProgramRepository) AutoPublish(ctx context.Context, tx *sqlx.Tx, programID string) error {
	const query = `UPDATE programs SET status = 'published', published_at = COALESCE(published_at, now()), updated_at = now()
WHERE id = $1 AND status <> 'archived'`
	if _, err := tx.ExecContext(ctx, query, programID); err != nil {
		return fmt.Errorf("auto publish program: %w", err)
	}
	return nil
}

// SetTopics replaces the program's topic links.
func (r *ProgramRepository) SetTopics(ctx context.Context, programID string, topicIDs []int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set topics tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM program_topics WHERE program_id = $1`, programID); err != nil {
		return fmt.Errorf("clear program topics: %w", err)
	}
	for _, topicID := range topicIDs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO program_topics (program_id, topic_id) VALUES ($1, $2)`, programID, topicID); err != nil {
			return fmt.Errorf("link program topic: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit set topics tx: %w", err)
	}
	return nil
}

// ListTopics returns topics attached to a program ordered by name.
func (r *ProgramRepository) ListTopics(ctx context.Context, programID string) ([]models.Topic, error) {
	const query = `SELECT t.id, t.name FROM topics t
JOIN program_topics pt ON pt.topic_id = t.id
WHERE pt.program_id = $1 ORDER BY t.name ASC`
	var topics []models.Topic
	if err := r.db.SelectContext(ctx, &topics, query, programID); err != nil {
		return nil, fmt.Errorf("list program topics: %w", err)
	}
	return topics, nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
