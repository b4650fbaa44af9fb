package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinyareddy314/cms-go/internal/models"
)

func TestAssetRepositoryThumbnailVariantsInsideTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssetRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT variant FROM lesson_assets
WHERE lesson_id = $1 AND language = $2 AND asset_type = 'thumbnail'`)).
		WithArgs("lesson-1", "en").
		WillReturnRows(sqlmock.NewRows([]string{"variant"}).AddRow("portrait").AddRow("landscape"))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	variants, err := repo.ThumbnailVariants(context.Background(), tx, "lesson-1", "en")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"portrait", "landscape"}, variants)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetRepositoryUpsertLessonAsset(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssetRepository(db)

	mock.ExpectExec(`INSERT INTO lesson_assets .+ON CONFLICT \(lesson_id, language, variant, asset_type\) DO UPDATE SET url = EXCLUDED\.url`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	asset := &models.LessonAsset{
		LessonID: "lesson-1",
		Language: "en",
		Variant:  models.VariantPortrait,
		Kind:     models.LessonAssetThumbnail,
		URL:      "https://cdn.example.com/thumb-p.jpg",
	}
	require.NoError(t, repo.UpsertLessonAsset(context.Background(), asset))
	assert.NotEmpty(t, asset.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetRepositoryDeleteProgramAsset(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssetRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM program_assets WHERE program_id = $1 AND language = $2 AND variant = $3 AND asset_type = 'poster'`)).
		WithArgs("program-1", "en", models.VariantLandscape).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteProgramAsset(context.Background(), "program-1", "en", models.VariantLandscape))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetRepositoryListProgramPostersEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssetRepository(db)

	posters, err := repo.ListProgramPosters(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, posters)
}
