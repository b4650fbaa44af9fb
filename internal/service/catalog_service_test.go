package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinyareddy314/cms-go/internal/dto"
	"github.com/vinyareddy314/cms-go/internal/models"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
)

type catalogRepoStub struct {
	rows      []dto.CatalogProgramRow
	visible   map[string]bool
	lastLimit int
}

func (s *catalogRepoStub) ListPublishedPrograms(ctx context.Context, filter dto.CatalogFilter) ([]dto.CatalogProgramRow, error) {
	s.lastLimit = filter.Limit
	return s.rows, nil
}

func (s *catalogRepoStub) HasPublishedLesson(ctx context.Context, programID string) (bool, error) {
	return s.visible[programID], nil
}

func (s *catalogRepoStub) ListPublishedLessons(ctx context.Context, termIDs []string) ([]models.Lesson, error) {
	return nil, nil
}

func (s *catalogRepoStub) FindPublishedLesson(ctx context.Context, id string) (*models.Lesson, error) {
	return nil, nil
}

type cacheStub struct {
	entries map[string][]byte
	sets    int
}

func (s *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.Clone(appErrors.ErrCacheMiss, "")
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if s.entries == nil {
		s.entries = map[string][]byte{}
	}
	s.entries[key] = raw
	s.sets++
	return nil
}

func (s *cacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.entries = map[string][]byte{}
	return nil
}

type catalogAssetListerStub struct{}

func (catalogAssetListerStub) ListProgramPosters(ctx context.Context, programIDs []string) ([]models.ProgramAsset, error) {
	return nil, nil
}

func (catalogAssetListerStub) ListLessonThumbnails(ctx context.Context, lessonIDs []string) ([]models.LessonAsset, error) {
	return nil, nil
}

func catalogRowFixture(id string, publishedAt time.Time) dto.CatalogProgramRow {
	return dto.CatalogProgramRow{
		ID:                    id,
		Title:                 "Program " + id,
		PrimaryLanguage:       "en",
		LanguagesAvailable:    []string{"en"},
		Status:                "published",
		LastLessonPublishedAt: publishedAt,
	}
}

func TestCatalogCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	token := encodeCursor(dto.CatalogCursor{LastPublishedAt: at, ProgramID: "program-7"})

	cursor, err := decodeCursor(token)
	require.NoError(t, err)
	assert.True(t, cursor.LastPublishedAt.Equal(at))
	assert.Equal(t, "program-7", cursor.ProgramID)
}

func TestCatalogCursorRejectsMalformedTokens(t *testing.T) {
	for _, token := range []string{"%%%not-base64%%%", "bm90IGpzb24", encodeCursor(dto.CatalogCursor{})} {
		_, err := decodeCursor(token)
		assert.Error(t, err, "token %q should not decode", token)
	}
}

func TestCatalogServiceListProgramsPagination(t *testing.T) {
	now := time.Now().UTC()
	repo := &catalogRepoStub{rows: []dto.CatalogProgramRow{
		catalogRowFixture("program-1", now),
		catalogRowFixture("program-2", now.Add(-time.Hour)),
		catalogRowFixture("program-3", now.Add(-2*time.Hour)),
	}}
	cache := &cacheStub{}
	svc := NewCatalogService(repo, nil, nil, catalogAssetListerStub{}, cache, time.Minute, 50, nil)

	page, err := svc.ListPrograms(context.Background(), CatalogQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Programs, 2)
	require.NotNil(t, page.NextCursor, "one-row overfetch should produce a next cursor")

	cursor, err := decodeCursor(*page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, "program-2", cursor.ProgramID)
	assert.Equal(t, 1, cache.sets)
}

func TestCatalogServiceListProgramsLastPage(t *testing.T) {
	repo := &catalogRepoStub{rows: []dto.CatalogProgramRow{
		catalogRowFixture("program-1", time.Now().UTC()),
	}}
	svc := NewCatalogService(repo, nil, nil, catalogAssetListerStub{}, &cacheStub{}, time.Minute, 50, nil)

	page, err := svc.ListPrograms(context.Background(), CatalogQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Programs, 1)
	assert.Nil(t, page.NextCursor)
}

func TestCatalogServiceListProgramsServesCachedPage(t *testing.T) {
	repo := &catalogRepoStub{rows: []dto.CatalogProgramRow{
		catalogRowFixture("program-1", time.Now().UTC()),
	}}
	cache := &cacheStub{}
	svc := NewCatalogService(repo, nil, nil, catalogAssetListerStub{}, cache, time.Minute, 50, nil)

	first, err := svc.ListPrograms(context.Background(), CatalogQuery{Limit: 10})
	require.NoError(t, err)

	repo.rows = nil // cache must answer the second call
	second, err := svc.ListPrograms(context.Background(), CatalogQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, len(first.Programs), len(second.Programs))
	assert.Equal(t, 1, cache.sets)
}

func TestCatalogServiceListProgramsClampsLimit(t *testing.T) {
	repo := &catalogRepoStub{}
	svc := NewCatalogService(repo, nil, nil, catalogAssetListerStub{}, &cacheStub{}, time.Minute, 25, nil)

	_, err := svc.ListPrograms(context.Background(), CatalogQuery{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 25, repo.lastLimit)

	_, err = svc.ListPrograms(context.Background(), CatalogQuery{})
	require.NoError(t, err)
	assert.Equal(t, defaultCatalogLimit, repo.lastLimit)
}

func TestCatalogServiceListProgramsRejectsBadCursor(t *testing.T) {
	svc := NewCatalogService(&catalogRepoStub{}, nil, nil, catalogAssetListerStub{}, &cacheStub{}, time.Minute, 50, nil)

	_, err := svc.ListPrograms(context.Background(), CatalogQuery{Cursor: "not-a-cursor"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceGetProgramHidesUnpublished(t *testing.T) {
	repo := &catalogRepoStub{visible: map[string]bool{}}
	svc := NewCatalogService(repo, nil, nil, catalogAssetListerStub{}, &cacheStub{}, time.Minute, 50, nil)

	_, err := svc.GetProgram(context.Background(), "program-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceInvalidateProgramPages(t *testing.T) {
	cache := &cacheStub{entries: map[string][]byte{"catalog:programs:lang=:topic=:cursor=:limit=20": []byte(`{}`)}}
	svc := NewCatalogService(&catalogRepoStub{}, nil, nil, catalogAssetListerStub{}, cache, time.Minute, 50, nil)

	svc.InvalidateProgramPages(context.Background())
	assert.Empty(t, cache.entries)
}
