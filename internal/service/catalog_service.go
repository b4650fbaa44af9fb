package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vinyareddy314/cms-go/internal/dto"
	"github.com/vinyareddy314/cms-go/internal/models"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
)

const (
	defaultCatalogLimit = 20
	catalogCachePrefix  = "catalog:programs:"
)

type catalogRepository interface {
	ListPublishedPrograms(ctx context.Context, filter dto.CatalogFilter) ([]dto.CatalogProgramRow, error)
	HasPublishedLesson(ctx context.Context, programID string) (bool, error)
	ListPublishedLessons(ctx context.Context, termIDs []string) ([]models.Lesson, error)
	FindPublishedLesson(ctx context.Context, id string) (*models.Lesson, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type catalogAssetLister interface {
	ListProgramPosters(ctx context.Context, programIDs []string) ([]models.ProgramAsset, error)
	ListLessonThumbnails(ctx context.Context, lessonIDs []string) ([]models.LessonAsset, error)
}

type catalogProgramFinder interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

// CatalogQuery is the raw query surface of the public program index.
type CatalogQuery struct {
	Language string
	Topic    string
	Cursor   string
	Limit    int
}

// CatalogService serves the public read surface. Programs appear only once
// they hold at least one published lesson; drafts and schedules stay hidden.
type CatalogService struct {
	catalog  catalogRepository
	programs catalogProgramFinder
	terms    programTermLister
	assets   catalogAssetLister
	cache    catalogCache
	cacheTTL time.Duration
	maxLimit int
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service instance.
func NewCatalogService(
	catalog catalogRepository,
	programs catalogProgramFinder,
	terms programTermLister,
	assets catalogAssetLister,
	cache catalogCache,
	cacheTTL time.Duration,
	maxLimit int,
	logger *zap.Logger,
) *CatalogService {
	if maxLimit <= 0 {
		maxLimit = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		catalog:  catalog,
		programs: programs,
		terms:    terms,
		assets:   assets,
		cache:    cache,
		cacheTTL: cacheTTL,
		maxLimit: maxLimit,
		logger:   logger,
	}
}

// ListPrograms pages the public program index ordered by most recent lesson
// publication. Pages are cached per filter+cursor combination.
func (s *CatalogService) ListPrograms(ctx context.Context, query CatalogQuery) (*dto.CatalogProgramPage, error) {
	filter, err := s.buildFilter(query)
	if err != nil {
		return nil, err
	}

	cacheKey := catalogPageKey(query, filter.Limit)
	var cached dto.CatalogProgramPage
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("catalog_cache_read_failed", zap.String("key", cacheKey), zap.Error(err))
	}

	rows, err := s.catalog.ListPublishedPrograms(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list catalog programs")
	}

	var nextCursor *string
	if len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
		last := rows[len(rows)-1]
		token := encodeCursor(dto.CatalogCursor{LastPublishedAt: last.LastLessonPublishedAt, ProgramID: last.ID})
		nextCursor = &token
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	posters, err := s.postersByProgram(ctx, ids)
	if err != nil {
		return nil, err
	}

	page := &dto.CatalogProgramPage{
		Programs:   make([]dto.CatalogProgram, 0, len(rows)),
		NextCursor: nextCursor,
	}
	for _, row := range rows {
		page.Programs = append(page.Programs, catalogProgramFromRow(row, posters[row.ID]))
	}

	if err := s.cache.Set(ctx, cacheKey, page, s.cacheTTL); err != nil {
		s.logger.Warn("catalog_cache_write_failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return page, nil
}

// GetProgram returns the public program page. Programs without any published
// lesson are indistinguishable from missing ones.
func (s *CatalogService) GetProgram(ctx context.Context, id string) (*dto.CatalogProgramDetail, error) {
	visible, err := s.catalog.HasPublishedLesson(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check program visibility")
	}
	if !visible {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
	}

	program, err := s.programs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	terms, err := s.terms.ListByProgram(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load terms")
	}
	termIDs := make([]string, 0, len(terms))
	for _, t := range terms {
		termIDs = append(termIDs, t.ID)
	}
	lessons, err := s.catalog.ListPublishedLessons(ctx, termIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	posters, err := s.postersByProgram(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	thumbnails, err := s.thumbnailsByLesson(ctx, lessons)
	if err != nil {
		return nil, err
	}

	detail := &dto.CatalogProgramDetail{
		Program: catalogProgramFromModel(program, posters[id]),
		Terms:   terms,
		Lessons: make([]dto.CatalogLesson, 0, len(lessons)),
	}
	for _, lesson := range lessons {
		detail.Lessons = append(detail.Lessons, catalogLessonFromModel(lesson, thumbnails[lesson.ID]))
	}
	return detail, nil
}

// GetLesson returns one published lesson with its thumbnails.
func (s *CatalogService) GetLesson(ctx context.Context, id string) (*dto.CatalogLesson, error) {
	lesson, err := s.catalog.FindPublishedLesson(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	thumbnails, err := s.thumbnailsByLesson(ctx, []models.Lesson{*lesson})
	if err != nil {
		return nil, err
	}
	out := catalogLessonFromModel(*lesson, thumbnails[lesson.ID])
	return &out, nil
}

// InvalidateProgramPages drops cached catalog pages after a publication
// changes what the index shows.
func (s *CatalogService) InvalidateProgramPages(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, catalogCachePrefix+"*"); err != nil {
		s.logger.Warn("catalog_cache_invalidation_failed", zap.Error(err))
	}
}

func (s *CatalogService) buildFilter(query CatalogQuery) (dto.CatalogFilter, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultCatalogLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	filter := dto.CatalogFilter{
		Language: query.Language,
		Topic:    query.Topic,
		Limit:    limit,
	}
	if query.Cursor != "" {
		cursor, err := decodeCursor(query.Cursor)
		if err != nil {
			return dto.CatalogFilter{}, appErrors.Clone(appErrors.ErrValidation, "invalid cursor")
		}
		filter.Cursor = cursor
	}
	return filter, nil
}

func (s *CatalogService) postersByProgram(ctx context.Context, programIDs []string) (map[string]models.AssetURLMap, error) {
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

func (s *CatalogService) thumbnailsByLesson(ctx context.Context, lessons []models.Lesson) (map[string]models.AssetURLMap, error) {
	ids := make([]string, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	assets, err := s.assets.ListLessonThumbnails(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thumbnails")
	}
	byLesson := make(map[string]models.AssetURLMap)
	for _, a := range assets {
		if byLesson[a.LessonID] == nil {
			byLesson[a.LessonID] = models.AssetURLMap{}
		}
		byLesson[a.LessonID].Add(a.Language, string(a.Variant), a.URL)
	}
	return byLesson, nil
}

// encodeCursor serializes a keyset position into an opaque URL-safe token.
func encodeCursor(cursor dto.CatalogCursor) string {
	raw, _ := json.Marshal(cursor)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(token string) (*dto.CatalogCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	var cursor dto.CatalogCursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return nil, fmt.Errorf("unmarshal cursor: %w", err)
	}
	if cursor.LastPublishedAt.IsZero() || cursor.ProgramID == "" {
		return nil, errors.New("incomplete cursor")
	}
	return &cursor, nil
}

func catalogPageKey(query CatalogQuery, limit int) string {
	return fmt.Sprintf("%slang=%s:topic=%s:cursor=%s:limit=%d",
		catalogCachePrefix, query.Language, query.Topic, query.Cursor, limit)
}

func catalogProgramFromRow(row dto.CatalogProgramRow, posters models.AssetURLMap) dto.CatalogProgram {
	if posters == nil {
		posters = models.AssetURLMap{}
	}
	return dto.CatalogProgram{
		ID:                 row.ID,
		Title:              row.Title,
		Description:        row.Description,
		PrimaryLanguage:    row.PrimaryLanguage,
		LanguagesAvailable: row.LanguagesAvailable,
		Status:             row.Status,
		PublishedAt:        row.PublishedAt,
		Assets:             dto.CatalogAssetBundle{Posters: posters},
	}
}

func catalogProgramFromModel(program *models.Program, posters models.AssetURLMap) dto.CatalogProgram {
	if posters == nil {
		posters = models.AssetURLMap{}
	}
	return dto.CatalogProgram{
		ID:                 program.ID,
		Title:              program.Title,
		Description:        program.Description,
		PrimaryLanguage:    program.PrimaryLanguage,
		LanguagesAvailable: program.LanguagesAvailable,
		Status:             string(program.Status),
		PublishedAt:        program.PublishedAt,
		Assets:             dto.CatalogAssetBundle{Posters: posters},
	}
}

func catalogLessonFromModel(lesson models.Lesson, thumbnails models.AssetURLMap) dto.CatalogLesson {
	if thumbnails == nil {
		thumbnails = models.AssetURLMap{}
	}
	return dto.CatalogLesson{
		ID:                 lesson.ID,
		TermID:             lesson.TermID,
		LessonNumber:       lesson.LessonNumber,
		Title:              lesson.Title,
		ContentType:        string(lesson.ContentType),
		DurationMS:         lesson.DurationMS,
		IsPaid:             lesson.IsPaid,
		PrimaryLanguage:    lesson.PrimaryLanguage,
		AvailableLanguages: lesson.AvailableLanguages,
		ContentURLs:        lesson.ContentURLs,
		SubtitleLanguages:  lesson.SubtitleLanguages,
		SubtitleURLs:       lesson.SubtitleURLs,
		PublishedAt:        lesson.PublishedAt,
		Assets:             dto.CatalogLessonAssetBundle{Thumbnails: thumbnails},
	}
}
