package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vinyareddy314/cms-go/internal/models"
)

type thumbnailVariantLister interface {
	ThumbnailVariants(ctx context.Context, q sqlx.QueryerContext, lessonID, language string) ([]string, error)
}

// checkThumbnailGate evaluates the publish precondition: the lesson's primary
// content language needs both a portrait and a landscape thumbnail. When
// allowMissing is set, a lesson with no thumbnail rows at all passes — a
// policy escape hatch for content entered before asset management.
//
// The queryer is the caller's transaction so the gate sees the same snapshot
// as the row lock it runs under.
func checkThumbnailGate(ctx context.Context, assets thumbnailVariantLister, q sqlx.QueryerContext, lessonID, language string, allowMissing bool) (bool, error) {
	variants, err := assets.ThumbnailVariants(ctx, q, lessonID, language)
	if err != nil {
		return false, err
	}

	if len(variants) == 0 {
		return allowMissing, nil
	}

	var hasPortrait, hasLandscape bool
	for _, v := range variants {
		switch models.AssetVariant(v) {
		case models.VariantPortrait:
			hasPortrait = true
		case models.VariantLandscape:
			hasLandscape = true
		}
	}
	return hasPortrait && hasLandscape, nil
}
