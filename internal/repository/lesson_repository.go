package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vinyareddy314/cms-go/internal/models"
)

const lessonColumns = `id, term_id, lesson_number, title, content_type, duration_ms, is_paid,
content_language_primary, content_languages_available, content_urls_by_language,
subtitle_languages, subtitle_urls_by_language, status, publish_at, published_at,
created_at, updated_at`

// LessonRepository handles persistence for lessons, including the locked
// reads and conditional writes the publication state machine depends on.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository instantiates a lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// FindByID loads a lesson by identifier.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE id = $1`, lessonColumns)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ListByTermIDs returns lessons of the given terms ordered by term and position.
func (r *LessonRepository) ListByTermIDs(ctx context.Context, termIDs []string) ([]models.Lesson, error) {
	if len(termIDs) == 0 {
		return []models.Lesson{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE term_id = ANY($1) ORDER BY term_id ASC, lesson_number ASC`, lessonColumns)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, pq.Array(termIDs)); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// Create inserts a lesson in draft status.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now
	lesson.Status = models.LessonStatusDraft

	const query = `INSERT INTO lessons (id, term_id, lesson_number, title, content_type, duration_ms, is_paid,
content_language_primary, content_languages_available, content_urls_by_language,
subtitle_languages, subtitle_urls_by_language, status, created_at, updated_at)
VALUES (:id, :term_id, :lesson_number, :title, :content_type, :duration_ms, :is_paid,
:content_language_primary, :content_languages_available, :content_urls_by_language,
:subtitle_languages, :subtitle_urls_by_language, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// Update rewrites the editable lesson fields. Status and the publication
// timestamps are owned by the state machine and never touched here.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET lesson_number = :lesson_number, title = :title, content_type = :content_type,
duration_ms = :duration_ms, is_paid = :is_paid, content_language_primary = :content_language_primary,
content_languages_available = :content_languages_available, content_urls_by_language = :content_urls_by_language,
subtitle_languages = :subtitle_languages, subtitle_urls_by_language = :subtitle_urls_by_language,
updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	return nil
}

// FindByIDForUpdate re-reads a lesson inside the caller's transaction,
// locking the row so a concurrent coordinator tick on the same lesson
// serializes behind it.
func (r *LessonRepository) FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE id = $1 FOR UPDATE`, lessonColumns)
	var lesson models.Lesson
	if err := tx.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// SelectDueForUpdate claims the due set for one coordinator tick. SKIP LOCKED
// lets concurrent pollers partition the set instead of blocking on or
// double-claiming each other's rows.
func (r *LessonRepository) SelectDueForUpdate(ctx context.Context, tx *sqlx.Tx) ([]models.DueLesson, error) {
	const query = `SELECT id, term_id, content_language_primary FROM lessons
WHERE status = 'scheduled' AND publish_at <= now()
FOR UPDATE SKIP LOCKED`
	var due []models.DueLesson
	if err := tx.SelectContext(ctx, &due, query); err != nil {
		return nil, fmt.Errorf("select due lessons: %w", err)
	}
	return due, nil
}

// MarkScheduled moves a draft lesson to scheduled with the given publish time.
func (r *LessonRepository) MarkScheduled(ctx context.Context, tx *sqlx.Tx, id string, publishAt time.Time) (bool, error) {
	const query = `UPDATE lessons SET status = 'scheduled', publish_at = $2, updated_at = now()
WHERE id = $1 AND status = 'draft'`
	res, err := tx.ExecContext(ctx, query, id, publishAt)
	if err != nil {
		return false, fmt.Errorf("schedule lesson: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("schedule lesson rows: %w", err)
	}
	return affected > 0, nil
}

// MarkPublishedNow publishes a draft lesson immediately.
func (r *LessonRepository) MarkPublishedNow(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	const query = `UPDATE lessons SET status = 'published', publish_at = now(), published_at = now(), updated_at = now()
WHERE id = $1 AND status = 'draft'`
	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("publish lesson: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("publish lesson rows: %w", err)
	}
	return affected > 0, nil
}

// MarkArchived retires a lesson. Timestamps are left as they were.
func (r *LessonRepository) MarkArchived(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	const query = `UPDATE lessons SET status = 'archived', updated_at = now()
WHERE id = $1 AND status <> 'archived'`
	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("archive lesson: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("archive lesson rows: %w", err)
	}
	return affected > 0, nil
}

// PublishDue flips one claimed lesson to published. The status and publish_at
// predicates re-validate the already-locked row, and COALESCE keeps
// published_at set-once, so a lost race degrades to zero rows affected.
func (r *LessonRepository) PublishDue(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	const query = `UPDATE lessons SET status = 'published', published_at = COALESCE(published_at, now()), updated_at = now()
WHERE id = $1 AND status = 'scheduled' AND publish_at <= now()`
	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("publish due lesson: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("publish due lesson rows: %w", err)
	}
	return affected > 0, nil
}
