package models

import (
	"time"

	"github.com/lib/pq"
)

// ProgramStatus enumerates program lifecycle states.
type ProgramStatus string

const (
	ProgramStatusDraft     ProgramStatus = "draft"
	ProgramStatusPublished ProgramStatus = "published"
	ProgramStatusArchived  ProgramStatus = "archived"
)

// Program is the top-level publishable unit grouping terms and lessons.
type Program struct {
	ID                 string         `db:"id" json:"id"`
	Title              string         `db:"title" json:"title"`
	Description        *string        `db:"description" json:"description,omitempty"`
	PrimaryLanguage    string         `db:"language_primary" json:"language_primary"`
	LanguagesAvailable pq.StringArray `db:"languages_available" json:"languages_available"`
	Status             ProgramStatus  `db:"status" json:"status"`
	PublishedAt        *time.Time     `db:"published_at" json:"published_at,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// ProgramFilter captures list filters for the CMS program index.
type ProgramFilter struct {
	Status          ProgramStatus
	PrimaryLanguage string
	Topic           string
}
