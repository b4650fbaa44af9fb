package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vinyareddy314/cms-go/internal/dto"
	"github.com/vinyareddy314/cms-go/internal/models"
)

// CatalogRepository serves the public read surface: only programs with at
// least one published lesson, and only published lessons.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository instantiates a catalog repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListPublishedPrograms pages programs that have published lessons, ordered
// by most recent lesson publication. The keyset predicate lives in HAVING
// because it compares against the aggregated publication time.
func (r *CatalogRepository) ListPublishedPrograms(ctx context.Context, filter dto.CatalogFilter) ([]dto.CatalogProgramRow, error) {
	query := `SELECT p.id, p.title, p.description, p.language_primary, p.languages_available, p.status, p.published_at,
MAX(l.published_at) AS last_lesson_published_at
FROM programs p
JOIN terms tr ON tr.program_id = p.id
JOIN lessons l ON l.term_id = tr.id`

	var conditions []string
	var args []interface{}

	if filter.Topic != "" {
		query += ` JOIN program_topics pt ON pt.program_id = p.id JOIN topics t ON t.id = pt.topic_id`
		conditions = append(conditions, fmt.Sprintf("t.name = $%d", len(args)+1))
		args = append(args, filter.Topic)
	}

	conditions = append(conditions, "l.status = 'published'")
	if filter.Language != "" {
		conditions = append(conditions, fmt.Sprintf("p.language_primary = $%d", len(args)+1))
		args = append(args, filter.Language)
	}

	query += " WHERE " + strings.Join(conditions, " AND ")
	query += " GROUP BY p.id"

	if filter.Cursor != nil {
		query += fmt.Sprintf(` HAVING MAX(l.published_at) < $%d OR (MAX(l.published_at) = $%d AND p.id < $%d)`,
			len(args)+1, len(args)+1, len(args)+2)
		args = append(args, filter.Cursor.LastPublishedAt, filter.Cursor.ProgramID)
	}

	// fetch one extra row to detect whether another page exists
	query += fmt.Sprintf(" ORDER BY last_lesson_published_at DESC, p.id DESC LIMIT %d", filter.Limit+1)

	var rows []dto.CatalogProgramRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list published programs: %w", err)
	}
	return rows, nil
}

// HasPublishedLesson reports whether a program is publicly visible.
func (r *CatalogRepository) HasPublishedLesson(ctx context.Context, programID string) (bool, error) {
	const query = `SELECT 1 FROM programs p
JOIN terms tr ON tr.program_id = p.id
JOIN lessons l ON l.term_id = tr.id
WHERE p.id = $1 AND l.status = 'published' LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, programID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check published lesson: %w", err)
	}
	return true, nil
}

// ListPublishedLessons returns published lessons of the given terms.
func (r *CatalogRepository) ListPublishedLessons(ctx context.Context, termIDs []string) ([]models.Lesson, error) {
	if len(termIDs) == 0 {
		return []models.Lesson{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE term_id = ANY($1) AND status = 'published'
ORDER BY term_id ASC, lesson_number ASC`, lessonColumns)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, pq.Array(termIDs)); err != nil {
		return nil, fmt.Errorf("list published lessons: %w", err)
	}
	return lessons, nil
}

// FindPublishedLesson loads one published lesson.
func (r *CatalogRepository) FindPublishedLesson(ctx context.Context, id string) (*models.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE id = $1 AND status = 'published'`, lessonColumns)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}
