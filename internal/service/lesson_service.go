package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/vinyareddy314/cms-go/internal/dto"
	"github.com/vinyareddy314/cms-go/internal/models"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
)

type lessonStore interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Lesson, error)
	MarkScheduled(ctx context.Context, tx *sqlx.Tx, id string, publishAt time.Time) (bool, error)
	MarkPublishedNow(ctx context.Context, tx *sqlx.Tx, id string) (bool, error)
	MarkArchived(ctx context.Context, tx *sqlx.Tx, id string) (bool, error)
}

type lessonTermStore interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	ProgramIDForTerm(ctx context.Context, tx *sqlx.Tx, termID string) (string, error)
}

type programCascader interface {
	AutoPublish(ctx context.Context, tx *sqlx.Tx, programID string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// CreateLessonRequest describes payload for creating lessons.
type CreateLessonRequest struct {
	TermID             string            `json:"term_id" validate:"required"`
	LessonNumber       int               `json:"lesson_number" validate:"required,min=1"`
	Title              string            `json:"title" validate:"required"`
	ContentType        string            `json:"content_type" validate:"required,oneof=video article"`
	DurationMS         *int64            `json:"duration_ms"`
	IsPaid             bool              `json:"is_paid"`
	PrimaryLanguage    string            `json:"content_language_primary" validate:"required"`
	AvailableLanguages []string          `json:"content_languages_available"`
	ContentURLs        map[string]string `json:"content_urls_by_language"`
	SubtitleLanguages  []string          `json:"subtitle_languages"`
	SubtitleURLs       map[string]string `json:"subtitle_urls_by_language"`
}

// UpdateLessonRequest patches editable lesson fields; nil means keep.
type UpdateLessonRequest struct {
	LessonNumber       *int              `json:"lesson_number"`
	Title              *string           `json:"title"`
	ContentType        *string           `json:"content_type"`
	DurationMS         *int64            `json:"duration_ms"`
	IsPaid             *bool             `json:"is_paid"`
	PrimaryLanguage    *string           `json:"content_language_primary"`
	AvailableLanguages []string          `json:"content_languages_available"`
	ContentURLs        map[string]string `json:"content_urls_by_language"`
	SubtitleLanguages  []string          `json:"subtitle_languages"`
	SubtitleURLs       map[string]string `json:"subtitle_urls_by_language"`
}

// LessonService owns lesson CRUD and the synchronous half of the publication
// state machine.
type LessonService struct {
	lessons   lessonStore
	terms     lessonTermStore
	programs  programCascader
	assets    thumbnailVariantLister
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	publish   PublishPolicy
}

// PublishPolicy carries publish precondition configuration.
type PublishPolicy struct {
	AllowMissingThumbnails bool
}

// NewLessonService wires lesson workflows.
func NewLessonService(
	lessons lessonStore,
	terms lessonTermStore,
	programs programCascader,
	assets thumbnailVariantLister,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	publish PublishPolicy,
) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{
		lessons:   lessons,
		terms:     terms,
		programs:  programs,
		assets:    assets,
		tx:        tx,
		validator: validate,
		logger:    logger,
		publish:   publish,
	}
}

// Get returns a lesson by ID.
func (s *LessonService) Get(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

// Create validates and persists a new draft lesson.
func (s *LessonService) Create(ctx context.Context, req CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	languages := req.AvailableLanguages
	if len(languages) == 0 && req.PrimaryLanguage != "" {
		languages = []string{req.PrimaryLanguage}
	}
	contentURLs := req.ContentURLs

	lesson := &models.Lesson{
		TermID:             req.TermID,
		LessonNumber:       req.LessonNumber,
		Title:              req.Title,
		ContentType:        models.ContentKind(req.ContentType),
		DurationMS:         req.DurationMS,
		IsPaid:             req.IsPaid,
		PrimaryLanguage:    req.PrimaryLanguage,
		AvailableLanguages: languages,
	}
	if err := setLessonJSON(lesson, contentURLs, req.SubtitleLanguages, req.SubtitleURLs); err != nil {
		return nil, err
	}
	if err := validateLessonSemantics(lesson, contentURLs); err != nil {
		return nil, err
	}

	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	return lesson, nil
}

// Patch merges updates onto the stored lesson and re-validates the result.
func (s *LessonService) Patch(ctx context.Context, id string, req UpdateLessonRequest) (*models.Lesson, error) {
	lesson, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.LessonNumber != nil {
		lesson.LessonNumber = *req.LessonNumber
	}
	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.ContentType != nil {
		kind := models.ContentKind(*req.ContentType)
		if kind != models.ContentKindVideo && kind != models.ContentKindArticle {
			return nil, appErrors.Clone(appErrors.ErrValidation, "content_type must be video or article")
		}
		lesson.ContentType = kind
	}
	if req.DurationMS != nil {
		lesson.DurationMS = req.DurationMS
	}
	if req.IsPaid != nil {
		lesson.IsPaid = *req.IsPaid
	}
	if req.PrimaryLanguage != nil {
		lesson.PrimaryLanguage = *req.PrimaryLanguage
	}
	if req.AvailableLanguages != nil {
		lesson.AvailableLanguages = req.AvailableLanguages
	}

	contentURLs := req.ContentURLs
	if contentURLs == nil {
		if err := json.Unmarshal(lesson.ContentURLs, &contentURLs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode stored content urls")
		}
	}
	subtitleLanguages := req.SubtitleLanguages
	if subtitleLanguages == nil {
		subtitleLanguages = lesson.SubtitleLanguages
	}
	subtitleURLs := req.SubtitleURLs
	if subtitleURLs == nil && lesson.SubtitleURLs.Valid {
		if err := json.Unmarshal(lesson.SubtitleURLs.JSONText, &subtitleURLs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode stored subtitle urls")
		}
	}

	if err := setLessonJSON(lesson, contentURLs, subtitleLanguages, subtitleURLs); err != nil {
		return nil, err
	}
	if err := validateLessonSemantics(lesson, contentURLs); err != nil {
		return nil, err
	}

	if err := s.lessons.Update(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	return lesson, nil
}

// ApplyStatusAction runs one author-triggered transition in a single
// transaction. The row is locked and re-read inside the transaction so the
// decision is never made on a stale copy racing a coordinator tick.
func (s *LessonService) ApplyStatusAction(ctx context.Context, id string, req dto.StatusActionRequest) (lesson *models.Lesson, err error) {
	action, ok := models.ParseStatusAction(req.Action)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown action")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := s.lessons.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock lesson")
		return nil, err
	}

	switch action {
	case models.ActionSchedule:
		err = s.schedule(ctx, tx, current, req.PublishAt)
	case models.ActionPublishNow:
		err = s.publishNow(ctx, tx, current)
	case models.ActionArchive:
		err = s.archive(ctx, tx, current)
	}
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit status change")
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *LessonService) schedule(ctx context.Context, tx *sqlx.Tx, lesson *models.Lesson, rawPublishAt string) error {
	if lesson.Status != models.LessonStatusDraft {
		return appErrors.Clone(appErrors.ErrInvalidState, "only draft lessons can be scheduled")
	}
	if rawPublishAt == "" {
		return appErrors.Clone(appErrors.ErrValidation, "publish_at is required when scheduling")
	}
	publishAt, err := time.Parse(time.RFC3339, rawPublishAt)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid publish_at")
	}
	if !publishAt.After(time.Now()) {
		return appErrors.Clone(appErrors.ErrValidation, "publish_at must be in the future")
	}

	updated, err := s.lessons.MarkScheduled(ctx, tx, lesson.ID, publishAt.UTC())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule lesson")
	}
	if !updated {
		return appErrors.Clone(appErrors.ErrInvalidState, "lesson status changed concurrently")
	}
	return nil
}

func (s *LessonService) publishNow(ctx context.Context, tx *sqlx.Tx, lesson *models.Lesson) error {
	if lesson.Status != models.LessonStatusDraft {
		return appErrors.Clone(appErrors.ErrInvalidState, "only draft lessons can be published directly")
	}

	ok, err := checkThumbnailGate(ctx, s.assets, tx, lesson.ID, lesson.PrimaryLanguage, s.publish.AllowMissingThumbnails)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check thumbnails")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrPreconditionFailed,
			"primary content language must have portrait and landscape thumbnails before publishing")
	}

	updated, err := s.lessons.MarkPublishedNow(ctx, tx, lesson.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish lesson")
	}
	if !updated {
		return appErrors.Clone(appErrors.ErrInvalidState, "lesson status changed concurrently")
	}

	programID, err := s.terms.ProgramIDForTerm(ctx, tx, lesson.TermID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve program")
	}
	if err := s.programs.AutoPublish(ctx, tx, programID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cascade program status")
	}
	return nil
}

func (s *LessonService) archive(ctx context.Context, tx *sqlx.Tx, lesson *models.Lesson) error {
	switch lesson.Status {
	case models.LessonStatusDraft, models.LessonStatusScheduled, models.LessonStatusPublished:
	default:
		return appErrors.Clone(appErrors.ErrInvalidState, "lesson cannot be archived from this status")
	}

	updated, err := s.lessons.MarkArchived(ctx, tx, lesson.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive lesson")
	}
	if !updated {
		return appErrors.Clone(appErrors.ErrInvalidState, "lesson status changed concurrently")
	}
	return nil
}

func setLessonJSON(lesson *models.Lesson, contentURLs map[string]string, subtitleLanguages []string, subtitleURLs map[string]string) error {
	raw, err := json.Marshal(contentURLs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode content urls")
	}
	lesson.ContentURLs = raw

	lesson.SubtitleLanguages = subtitleLanguages
	if subtitleURLs == nil {
		lesson.SubtitleURLs = types.NullJSONText{}
		return nil
	}
	rawSubs, err := json.Marshal(subtitleURLs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode subtitle urls")
	}
	lesson.SubtitleURLs = types.NullJSONText{JSONText: rawSubs, Valid: true}
	return nil
}

func validateLessonSemantics(lesson *models.Lesson, contentURLs map[string]string) error {
	if lesson.PrimaryLanguage == "" || len(lesson.AvailableLanguages) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "content_language_primary and content_languages_available are required")
	}

	found := false
	for _, lang := range lesson.AvailableLanguages {
		if lang == lesson.PrimaryLanguage {
			found = true
			break
		}
	}
	if !found {
		return appErrors.Clone(appErrors.ErrValidation, "content_language_primary must be included in content_languages_available")
	}

	if len(contentURLs) == 0 || contentURLs[lesson.PrimaryLanguage] == "" {
		return appErrors.Clone(appErrors.ErrValidation, "at least the primary content URL is required")
	}

	if lesson.ContentType == models.ContentKindVideo && lesson.DurationMS == nil {
		return appErrors.Clone(appErrors.ErrValidation, "duration_ms is required for video lessons")
	}
	return nil
}
