package service

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinyareddy314/cms-go/internal/models"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
)

func newTxProviderMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

type dueLessonStoreStub struct {
	due        []models.DueLesson
	publishOK  map[string]bool
	publishErr error
	published  []string
}

func (s *dueLessonStoreStub) SelectDueForUpdate(ctx context.Context, tx *sqlx.Tx) ([]models.DueLesson, error) {
	return s.due, nil
}

func (s *dueLessonStoreStub) PublishDue(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	if s.publishErr != nil {
		return false, s.publishErr
	}
	ok, found := s.publishOK[id]
	if !found {
		ok = true
	}
	if ok {
		s.published = append(s.published, id)
	}
	return ok, nil
}

type termStoreStub struct {
	programByTerm map[string]string
}

func (s termStoreStub) ProgramIDForTerm(ctx context.Context, tx *sqlx.Tx, termID string) (string, error) {
	return s.programByTerm[termID], nil
}

type cascaderStub struct {
	programs []string
}

func (s *cascaderStub) AutoPublish(ctx context.Context, tx *sqlx.Tx, programID string) error {
	s.programs = append(s.programs, programID)
	return nil
}

type variantListerStub struct {
	variants map[string][]string
	err      error
}

func (s variantListerStub) ThumbnailVariants(ctx context.Context, q sqlx.QueryerContext, lessonID, language string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.variants[lessonID], nil
}

func TestPublisherServiceTickPublishesDueSet(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	lessons := &dueLessonStoreStub{
		due: []models.DueLesson{
			{ID: "lesson-1", TermID: "term-1", PrimaryLanguage: "en"},
			{ID: "lesson-2", TermID: "term-2", PrimaryLanguage: "hi"},
		},
	}
	cascader := &cascaderStub{}
	svc := NewPublisherService(
		lessons,
		termStoreStub{programByTerm: map[string]string{"term-1": "program-1", "term-2": "program-2"}},
		cascader,
		variantListerStub{variants: map[string][]string{
			"lesson-1": {"portrait", "landscape"},
			"lesson-2": {"portrait", "landscape", "square"},
		}},
		db, nil, nil,
		PublishPolicy{},
	)

	summary, err := svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.DueCount)
	assert.Equal(t, 2, summary.PublishedCount)
	assert.Equal(t, 0, summary.SkippedCount)
	assert.Equal(t, []string{"lesson-1", "lesson-2"}, lessons.published)
	assert.Equal(t, []string{"program-1", "program-2"}, cascader.programs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisherServiceTickSkipsPartialThumbnails(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	lessons := &dueLessonStoreStub{
		due: []models.DueLesson{{ID: "lesson-1", TermID: "term-1", PrimaryLanguage: "en"}},
	}
	cascader := &cascaderStub{}
	svc := NewPublisherService(
		lessons,
		termStoreStub{},
		cascader,
		variantListerStub{variants: map[string][]string{"lesson-1": {"portrait"}}},
		db, nil, nil,
		PublishPolicy{AllowMissingThumbnails: true},
	)

	summary, err := svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DueCount)
	assert.Equal(t, 0, summary.PublishedCount)
	assert.Equal(t, 1, summary.SkippedCount)
	assert.Empty(t, lessons.published, "partial thumbnail set must hold the lesson back")
	assert.Empty(t, cascader.programs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisherServiceTickWaivesLessonsWithoutThumbnails(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	lessons := &dueLessonStoreStub{
		due: []models.DueLesson{{ID: "lesson-1", TermID: "term-1", PrimaryLanguage: "en"}},
	}
	svc := NewPublisherService(
		lessons,
		termStoreStub{programByTerm: map[string]string{"term-1": "program-1"}},
		&cascaderStub{},
		variantListerStub{},
		db, nil, nil,
		PublishPolicy{AllowMissingThumbnails: true},
	)

	summary, err := svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PublishedCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisherServiceTickLostRaceSkipsCascade(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	lessons := &dueLessonStoreStub{
		due:       []models.DueLesson{{ID: "lesson-1", TermID: "term-1", PrimaryLanguage: "en"}},
		publishOK: map[string]bool{"lesson-1": false},
	}
	cascader := &cascaderStub{}
	svc := NewPublisherService(
		lessons,
		termStoreStub{programByTerm: map[string]string{"term-1": "program-1"}},
		cascader,
		variantListerStub{variants: map[string][]string{"lesson-1": {"portrait", "landscape"}}},
		db, nil, nil,
		PublishPolicy{},
	)

	summary, err := svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DueCount)
	assert.Equal(t, 0, summary.PublishedCount)
	assert.Empty(t, cascader.programs, "zero-row publish must not cascade")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisherServiceTickRollsBackOnFailure(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	lessons := &dueLessonStoreStub{
		due:        []models.DueLesson{{ID: "lesson-1", TermID: "term-1", PrimaryLanguage: "en"}},
		publishErr: errors.New("connection reset"),
	}
	svc := NewPublisherService(
		lessons,
		termStoreStub{},
		&cascaderStub{},
		variantListerStub{variants: map[string][]string{"lesson-1": {"portrait", "landscape"}}},
		db, nil, nil,
		PublishPolicy{},
	)

	summary, err := svc.Tick(context.Background())
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisherServiceRunStopsOnContextCancel(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	svc := NewPublisherService(
		&dueLessonStoreStub{},
		termStoreStub{},
		&cascaderStub{},
		variantListerStub{},
		db, nil, nil,
		PublishPolicy{},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
