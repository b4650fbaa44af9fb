package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinyareddy314/cms-go/internal/dto"
	"github.com/vinyareddy314/cms-go/internal/models"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
)

type lessonStoreStub struct {
	lesson *models.Lesson

	scheduleOK bool
	publishOK  bool
	archiveOK  bool

	scheduledAt *time.Time
	published   bool
	archived    bool
	created     *models.Lesson
	updated     *models.Lesson
}

func (s *lessonStoreStub) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	if s.lesson == nil || s.lesson.ID != id {
		return nil, sql.ErrNoRows
	}
	copied := *s.lesson
	return &copied, nil
}

func (s *lessonStoreStub) Create(ctx context.Context, lesson *models.Lesson) error {
	lesson.ID = "lesson-created"
	lesson.Status = models.LessonStatusDraft
	s.created = lesson
	return nil
}

func (s *lessonStoreStub) Update(ctx context.Context, lesson *models.Lesson) error {
	s.updated = lesson
	return nil
}

func (s *lessonStoreStub) FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Lesson, error) {
	return s.FindByID(ctx, id)
}

func (s *lessonStoreStub) MarkScheduled(ctx context.Context, tx *sqlx.Tx, id string, publishAt time.Time) (bool, error) {
	if s.scheduleOK {
		s.scheduledAt = &publishAt
	}
	return s.scheduleOK, nil
}

func (s *lessonStoreStub) MarkPublishedNow(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	s.published = s.publishOK
	return s.publishOK, nil
}

func (s *lessonStoreStub) MarkArchived(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	s.archived = s.archiveOK
	return s.archiveOK, nil
}

type lessonTermStoreStub struct {
	term          *models.Term
	programByTerm map[string]string
}

func (s lessonTermStoreStub) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if s.term == nil || s.term.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.term, nil
}

func (s lessonTermStoreStub) ProgramIDForTerm(ctx context.Context, tx *sqlx.Tx, termID string) (string, error) {
	return s.programByTerm[termID], nil
}

func draftLessonFixture() *models.Lesson {
	duration := int64(540000)
	return &models.Lesson{
		ID:                 "lesson-1",
		TermID:             "term-1",
		LessonNumber:       1,
		Title:              "Forces and Motion",
		ContentType:        models.ContentKindVideo,
		DurationMS:         &duration,
		PrimaryLanguage:    "en",
		AvailableLanguages: []string{"en", "hi"},
		ContentURLs:        []byte(`{"en":"https://cdn.example.com/l1-en.mp4"}`),
		Status:             models.LessonStatusDraft,
	}
}

func TestLessonServiceScheduleHappyPath(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	lessons := &lessonStoreStub{lesson: draftLessonFixture(), scheduleOK: true}
	svc := NewLessonService(lessons, lessonTermStoreStub{}, &cascaderStub{}, variantListerStub{}, db, nil, nil, PublishPolicy{})

	publishAt := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	lesson, err := svc.ApplyStatusAction(context.Background(), "lesson-1", dto.StatusActionRequest{
		Action:    "schedule",
		PublishAt: publishAt,
	})
	require.NoError(t, err)
	require.NotNil(t, lesson)
	require.NotNil(t, lessons.scheduledAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *lessons.scheduledAt, 5*time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonServiceScheduleRejectsPastTimestamp(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	lessons := &lessonStoreStub{lesson: draftLessonFixture(), scheduleOK: true}
	svc := NewLessonService(lessons, lessonTermStoreStub{}, &cascaderStub{}, variantListerStub{}, db, nil, nil, PublishPolicy{})

	_, err := svc.ApplyStatusAction(context.Background(), "lesson-1", dto.StatusActionRequest{
		Action:    "schedule",
		PublishAt: time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, lessons.scheduledAt)
}

func TestLessonServiceScheduleRequiresPublishAt(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	lessons := &lessonStoreStub{lesson: draftLessonFixture(), scheduleOK: true}
	svc := NewLessonService(lessons, lessonTermStoreStub{}, &cascaderStub{}, variantListerStub{}, db, nil, nil, PublishPolicy{})

	_, err := svc.ApplyStatusAction(context.Background(), "lesson-1", dto.StatusActionRequest{Action: "schedule"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLessonServiceScheduleRejectsNonDraft(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	fixture := draftLessonFixture()
	fixture.Status = models.LessonStatusPublished
	lessons := &lessonStoreStub{lesson: fixture, scheduleOK: true}
	svc := NewLessonService(lessons, lessonTermStoreStub{}, &cascaderStub{}, variantListerStub{}, db, nil, nil, PublishPolicy{})

	_, err := svc.ApplyStatusAction(context.Background(), "lesson-1", dto.StatusActionRequest{
		Action:    "schedule",
		PublishAt: time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestLessonServicePublishNowCascades(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	lessons := &lessonStoreStub{lesson: draftLessonFixture(), publishOK: true}
	cascader := &cascaderStub{}
	svc := NewLessonService(
		lessons,
		lessonTermStoreStub{programByTerm: map[string]string{"term-1": "program-1"}},
		cascader,
		variantListerStub{variants: map[string][]string{"lesson-1": {"portrait", "landscape"}}},
		db, nil, nil,
		PublishPolicy{},
	)

	lesson, err := svc.ApplyStatusAction(context.Background(), "lesson-1", dto.StatusActionRequest{Action: "publish_now"})
	require.NoError(t, err)
	require.NotNil(t, lesson)
	assert.True(t, lessons.published)
	assert.Equal(t, []string{"program-1"}, cascader.programs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonServicePublishNowFailsThumbnailGate(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	lessons := &lessonStoreStub{lesson: draftLessonFixture(), publishOK: true}
	svc := NewLessonService(
		lessons,
		lessonTermStoreStub{},
		&cascaderStub{},
		variantListerStub{variants: map[string][]string{"lesson-1": {"portrait"}}},
		db, nil, nil,
		PublishPolicy{AllowMissingThumbnails: true},
	)

	_, err := svc.ApplyStatusAction(context.Background(), "lesson-1", dto.StatusActionRequest{Action: "publish_now"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.False(t, lessons.published)
}

func TestLessonServicePublishNowWaivesMissingThumbnails(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	lessons := &lessonStoreStub{lesson: draftLessonFixture(), publishOK: true}
	svc := NewLessonService(
		lessons,
		lessonTermStoreStub{programByTerm: map[string]string{"term-1": "program-1"}},
		&cascaderStub{},
		variantListerStub{},
		db, nil, nil,
		PublishPolicy{AllowMissingThumbnails: true},
	)

	_, err := svc.ApplyStatusAction(context.Background(), "lesson-1", dto.StatusActionRequest{Action: "publish_now"})
	require.NoError(t, err)
	assert.True(t, lessons.published)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonServiceArchiveFromPublished(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	fixture := draftLessonFixture()
	fixture.Status = models.LessonStatusPublished
	lessons := &lessonStoreStub{lesson: fixture, archiveOK: true}
	svc := NewLessonService(lessons, lessonTermStoreStub{}, &cascaderStub{}, variantListerStub{}, db, nil, nil, PublishPolicy{})

	_, err := svc.ApplyStatusAction(context.Background(), "lesson-1", dto.StatusActionRequest{Action: "archive"})
	require.NoError(t, err)
	assert.True(t, lessons.archived)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonServiceArchiveRejectsArchived(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	fixture := draftLessonFixture()
	fixture.Status = models.LessonStatusArchived
	lessons := &lessonStoreStub{lesson: fixture, archiveOK: true}
	svc := NewLessonService(lessons, lessonTermStoreStub{}, &cascaderStub{}, variantListerStub{}, db, nil, nil, PublishPolicy{})

	_, err := svc.ApplyStatusAction(context.Background(), "lesson-1", dto.StatusActionRequest{Action: "archive"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestLessonServiceApplyStatusActionUnknownAction(t *testing.T) {
	svc := NewLessonService(&lessonStoreStub{}, lessonTermStoreStub{}, &cascaderStub{}, variantListerStub{}, nil, nil, nil, PublishPolicy{})

	_, err := svc.ApplyStatusAction(context.Background(), "lesson-1", dto.StatusActionRequest{Action: "promote"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLessonServiceApplyStatusActionLessonNotFound(t *testing.T) {
	db, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	svc := NewLessonService(&lessonStoreStub{}, lessonTermStoreStub{}, &cascaderStub{}, variantListerStub{}, db, nil, nil, PublishPolicy{})

	_, err := svc.ApplyStatusAction(context.Background(), "missing", dto.StatusActionRequest{Action: "archive"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLessonServiceCreateValidations(t *testing.T) {
	duration := int64(300000)
	base := CreateLessonRequest{
		TermID:             "term-1",
		LessonNumber:       1,
		Title:              "Cells",
		ContentType:        "video",
		DurationMS:         &duration,
		PrimaryLanguage:    "en",
		AvailableLanguages: []string{"en"},
		ContentURLs:        map[string]string{"en": "https://cdn.example.com/cells.mp4"},
	}
	term := &models.Term{ID: "term-1", ProgramID: "program-1", TermNumber: 1}

	tests := []struct {
		name   string
		mutate func(*CreateLessonRequest)
	}{
		{
			name:   "video without duration",
			mutate: func(r *CreateLessonRequest) { r.DurationMS = nil },
		},
		{
			name:   "primary not in available",
			mutate: func(r *CreateLessonRequest) { r.AvailableLanguages = []string{"hi"} },
		},
		{
			name:   "missing primary content url",
			mutate: func(r *CreateLessonRequest) { r.ContentURLs = map[string]string{"hi": "https://cdn.example.com/hi.mp4"} },
		},
		{
			name:   "invalid content type",
			mutate: func(r *CreateLessonRequest) { r.ContentType = "podcast" },
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewLessonService(&lessonStoreStub{}, lessonTermStoreStub{term: term}, &cascaderStub{}, variantListerStub{}, nil, nil, nil, PublishPolicy{})
			req := base
			tc.mutate(&req)
			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestLessonServiceCreateDefaultsLanguages(t *testing.T) {
	duration := int64(300000)
	lessons := &lessonStoreStub{}
	svc := NewLessonService(lessons, lessonTermStoreStub{term: &models.Term{ID: "term-1", ProgramID: "program-1", TermNumber: 1}}, &cascaderStub{}, variantListerStub{}, nil, nil, nil, PublishPolicy{})

	lesson, err := svc.Create(context.Background(), CreateLessonRequest{
		TermID:          "term-1",
		LessonNumber:    2,
		Title:           "Photosynthesis",
		ContentType:     "video",
		DurationMS:      &duration,
		PrimaryLanguage: "hi",
		ContentURLs:     map[string]string{"hi": "https://cdn.example.com/photo-hi.mp4"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.LessonStatusDraft, lesson.Status)
	assert.Equal(t, []string{"hi"}, []string(lesson.AvailableLanguages))
	require.NotNil(t, lessons.created)
}
