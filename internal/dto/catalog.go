package dto

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/vinyareddy314/cms-go/internal/models"
)

// CatalogFilter captures query parameters for the public program index.
type CatalogFilter struct {
	Language string
	Topic    string
	Cursor   *CatalogCursor
	Limit    int
}

// CatalogCursor is the keyset pagination position over
// (last_lesson_published_at DESC, program_id DESC).
type CatalogCursor struct {
	LastPublishedAt time.Time `json:"last_published_at"`
	ProgramID       string    `json:"program_id"`
}

// CatalogProgramRow is the raw catalog index projection.
type CatalogProgramRow struct {
	ID                    string         `db:"id"`
	Title                 string         `db:"title"`
	Description           *string        `db:"description"`
	PrimaryLanguage       string         `db:"language_primary"`
	LanguagesAvailable    pq.StringArray `db:"languages_available"`
	Status                string         `db:"status"`
	PublishedAt           *time.Time     `db:"published_at"`
	LastLessonPublishedAt time.Time      `db:"last_lesson_published_at"`
}

// CatalogProgram is a program as exposed on the public index.
type CatalogProgram struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Description        *string            `json:"description,omitempty"`
	PrimaryLanguage    string             `json:"language_primary"`
	LanguagesAvailable []string           `json:"languages_available"`
	Status             string             `json:"status"`
	PublishedAt        *time.Time         `json:"published_at,omitempty"`
	Assets             CatalogAssetBundle `json:"assets"`
}

// CatalogAssetBundle wraps poster maps for program payloads.
type CatalogAssetBundle struct {
	Posters models.AssetURLMap `json:"posters"`
}

// CatalogProgramPage is one page of the public program index.
type CatalogProgramPage struct {
	Programs   []CatalogProgram `json:"programs"`
	NextCursor *string          `json:"next_cursor"`
}

// CatalogLesson is a published lesson as exposed publicly.
type CatalogLesson struct {
	ID                 string                   `json:"id"`
	TermID             string                   `json:"term_id"`
	LessonNumber       int                      `json:"lesson_number"`
	Title              string                   `json:"title"`
	ContentType        string                   `json:"content_type"`
	DurationMS         *int64                   `json:"duration_ms,omitempty"`
	IsPaid             bool                     `json:"is_paid"`
	PrimaryLanguage    string                   `json:"content_language_primary"`
	AvailableLanguages []string                 `json:"content_languages_available"`
	ContentURLs        types.JSONText           `json:"content_urls_by_language"`
	SubtitleLanguages  []string                 `json:"subtitle_languages,omitempty"`
	SubtitleURLs       types.NullJSONText       `json:"subtitle_urls_by_language,omitempty"`
	PublishedAt        *time.Time               `json:"published_at,omitempty"`
	Assets             CatalogLessonAssetBundle `json:"assets"`
}

// CatalogLessonAssetBundle wraps thumbnail maps for lesson payloads.
type CatalogLessonAssetBundle struct {
	Thumbnails models.AssetURLMap `json:"thumbnails"`
}

// CatalogProgramDetail is the public program page with published lessons only.
type CatalogProgramDetail struct {
	Program CatalogProgram  `json:"program"`
	Terms   []models.Term   `json:"terms"`
	Lessons []CatalogLesson `json:"lessons"`
}
