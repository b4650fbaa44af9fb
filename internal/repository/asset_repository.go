package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vinyareddy314/cms-go/internal/models"
)

// AssetRepository handles lesson and program artwork rows.
type AssetRepository struct {
	db *sqlx.DB
}

// NewAssetRepository instantiates an asset repository.
func NewAssetRepository(db *sqlx.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// ThumbnailVariants lists which thumbnail variants exist for a lesson's
// language. It accepts any queryer so the publish precondition can be
// evaluated against the row-locking transaction.
func (r *AssetRepository) ThumbnailVariants(ctx context.Context, q sqlx.QueryerContext, lessonID, language string) ([]string, error) {
	const query = `SELECT variant FROM lesson_assets
WHERE lesson_id = $1 AND language = $2 AND asset_type = 'thumbnail'`
	var variants []string
	if err := sqlx.SelectContext(ctx, q, &variants, query, lessonID, language); err != nil {
		return nil, fmt.Errorf("list thumbnail variants: %w", err)
	}
	return variants, nil
}

// UpsertLessonAsset writes an asset row, replacing the URL on key conflict.
func (r *AssetRepository) UpsertLessonAsset(ctx context.Context, asset *models.LessonAsset) error {
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	const query = `INSERT INTO lesson_assets (id, lesson_id, language, variant, asset_type, url)
VALUES (:id, :lesson_id, :language, :variant, :asset_type, :url)
ON CONFLICT (lesson_id, language, variant, asset_type) DO UPDATE SET url = EXCLUDED.url`
	if _, err := r.db.NamedExecContext(ctx, query, asset); err != nil {
		return fmt.Errorf("upsert lesson asset: %w", err)
	}
	return nil
}

// DeleteLessonAsset removes one asset row by its logical key.
func (r *AssetRepository) DeleteLessonAsset(ctx context.Context, lessonID, language string, variant models.AssetVariant, kind models.LessonAssetKind) error {
	const query = `DELETE FROM lesson_assets WHERE lesson_id = $1 AND language = $2 AND variant = $3 AND asset_type = $4`
	if _, err := r.db.ExecContext(ctx, query, lessonID, language, variant, kind); err != nil {
		return fmt.Errorf("delete lesson asset: %w", err)
	}
	return nil
}

// ListLessonThumbnails returns thumbnail rows for the given lessons.
func (r *AssetRepository) ListLessonThumbnails(ctx context.Context, lessonIDs []string) ([]models.LessonAsset, error) {
	if len(lessonIDs) == 0 {
		return []models.LessonAsset{}, nil
	}
	const query = `SELECT id, lesson_id, language, variant, asset_type, url FROM lesson_assets
WHERE lesson_id = ANY($1) AND asset_type = 'thumbnail'`
	var assets []models.LessonAsset
	if err := r.db.SelectContext(ctx, &assets, query, pq.Array(lessonIDs)); err != nil {
		return nil, fmt.Errorf("list lesson thumbnails: %w", err)
	}
	return assets, nil
}

// UpsertProgramAsset writes a poster row, replacing the URL on key conflict.
func (r *AssetRepository) UpsertProgramAsset(ctx context.Context, asset *models.ProgramAsset) error {
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	const query = `INSERT INTO program_assets (id, program_id, language, variant, asset_type, url)
VALUES (:id, :program_id, :language, :variant, :asset_type, :url)
ON CONFLICT (program_id, language, variant, asset_type) DO UPDATE SET url = EXCLUDED.url`
	if _, err := r.db.NamedExecContext(ctx, query, asset); err != nil {
		return fmt.Errorf("upsert program asset: %w", err)
	}
	return nil
}

// DeleteProgramAsset removes one poster row by its logical key.
func (r *AssetRepository) DeleteProgramAsset(ctx context.Context, programID, language string, variant models.AssetVariant) error {
	const query = `DELETE FROM program_assets WHERE program_id = $1 AND language = $2 AND variant = $3 AND asset_type = 'poster'`
	if _, err := r.db.ExecContext(ctx, query, programID, language, variant); err != nil {
		return fmt.Errorf("delete program asset: %w", err)
	}
	return nil
}

// ListProgramPosters returns poster rows for the given programs.
func (r *AssetRepository) ListProgramPosters(ctx context.Context, programIDs []string) ([]models.ProgramAsset, error) {
	if len(programIDs) == 0 {
		return []models.ProgramAsset{}, nil
	}
	const query = `SELECT id, program_id, language, variant, asset_type, url FROM program_assets
WHERE program_id = ANY($1) AND asset_type = 'poster'`
	var assets []models.ProgramAsset
	if err := r.db.SelectContext(ctx, &assets, query, pq.Array(programIDs)); err != nil {
		return nil, fmt.Errorf("list program posters: %w", err)
	}
	return assets, nil
}
