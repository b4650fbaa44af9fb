package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// LessonStatus enumerates the lesson lifecycle states.
type LessonStatus string

const (
	LessonStatusDraft     LessonStatus = "draft"
	LessonStatusScheduled LessonStatus = "scheduled"
	LessonStatusPublished LessonStatus = "published"
	LessonStatusArchived  LessonStatus = "archived"
)

// ContentKind distinguishes playable from readable lessons.
type ContentKind string

const (
	ContentKindVideo   ContentKind = "video"
	ContentKindArticle ContentKind = "article"
)

// StatusAction is an author-triggered lesson transition.
type StatusAction string

const (
	ActionSchedule   StatusAction = "schedule"
	ActionPublishNow StatusAction = "publish_now"
	ActionArchive    StatusAction = "archive"
)

// ParseStatusAction maps a wire value onto the closed action set.
func ParseStatusAction(raw string) (StatusAction, bool) {
	switch StatusAction(raw) {
	case ActionSchedule, ActionPublishNow, ActionArchive:
		return StatusAction(raw), true
	}
	return "", false
}

// Lesson is a unit of publishable content within a term.
//
// Invariants enforced across the state machine: status = scheduled iff
// publish_at is set, status = published iff published_at is set, and the
// primary content language is a member of the available languages.
type Lesson struct {
	ID                 string             `db:"id" json:"id"`
	TermID             string             `db:"term_id" json:"term_id"`
	LessonNumber       int                `db:"lesson_number" json:"lesson_number"`
	Title              string             `db:"title" json:"title"`
	ContentType        ContentKind        `db:"content_type" json:"content_type"`
	DurationMS         *int64             `db:"duration_ms" json:"duration_ms,omitempty"`
	IsPaid             bool               `db:"is_paid" json:"is_paid"`
	PrimaryLanguage    string             `db:"content_language_primary" json:"content_language_primary"`
	AvailableLanguages pq.StringArray     `db:"content_languages_available" json:"content_languages_available"`
	ContentURLs        types.JSONText     `db:"content_urls_by_language" json:"content_urls_by_language"`
	SubtitleLanguages  pq.StringArray     `db:"subtitle_languages" json:"subtitle_languages,omitempty"`
	SubtitleURLs       types.NullJSONText `db:"subtitle_urls_by_language" json:"subtitle_urls_by_language,omitempty"`
	Status             LessonStatus       `db:"status" json:"status"`
	PublishAt          *time.Time         `db:"publish_at" json:"publish_at,omitempty"`
	PublishedAt        *time.Time         `db:"published_at" json:"published_at,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}

// DueLesson is the projection the scheduled-publish coordinator locks per tick.
type DueLesson struct {
	ID              string `db:"id"`
	TermID          string `db:"term_id"`
	PrimaryLanguage string `db:"content_language_primary"`
}
