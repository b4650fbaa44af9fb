package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinyareddy314/cms-go/internal/dto"
)

func catalogRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "title", "description", "language_primary", "languages_available", "status", "published_at", "last_lesson_published_at"}).
		AddRow("program-2", "Geometry", nil, "en", "{en}", "published", now, now).
		AddRow("program-1", "Algebra", nil, "en", "{en}", "published", now, now.Add(-time.Hour))
}

func TestCatalogRepositoryListPublishedPrograms(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	mock.ExpectQuery(`SELECT p\.id, .+ MAX\(l\.published_at\) AS last_lesson_published_at .+ WHERE l\.status = 'published' GROUP BY p\.id ORDER BY last_lesson_published_at DESC, p\.id DESC LIMIT 3`).
		WillReturnRows(catalogRows())

	rows, err := repo.ListPublishedPrograms(context.Background(), dto.CatalogFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "program-2", rows[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryListPublishedProgramsCursor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	cursorAt := time.Now().Add(-time.Hour)
	mock.ExpectQuery(`HAVING MAX\(l\.published_at\) < \$1 OR \(MAX\(l\.published_at\) = \$1 AND p\.id < \$2\)`).
		WithArgs(cursorAt, "program-5").
		WillReturnRows(catalogRows())

	_, err := repo.ListPublishedPrograms(context.Background(), dto.CatalogFilter{
		Limit:  2,
		Cursor: &dto.CatalogCursor{LastPublishedAt: cursorAt, ProgramID: "program-5"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryHasPublishedLesson(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE p.id = $1 AND l.status = 'published' LIMIT 1`)).
		WithArgs("program-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	visible, err := repo.HasPublishedLesson(context.Background(), "program-1")
	require.NoError(t, err)
	assert.True(t, visible)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE p.id = $1 AND l.status = 'published' LIMIT 1`)).
		WithArgs("program-hidden").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	visible, err = repo.HasPublishedLesson(context.Background(), "program-hidden")
	require.NoError(t, err)
	assert.False(t, visible)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryListPublishedLessonsEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	lessons, err := repo.ListPublishedLessons(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, lessons)
}
