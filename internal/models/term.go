package models

import "time"

// Term orders lessons under a program. It carries no lifecycle of its own.
type Term struct {
	ID         string    `db:"id" json:"id"`
	ProgramID  string    `db:"program_id" json:"program_id"`
	TermNumber int       `db:"term_number" json:"term_number"`
	Title      *string   `db:"title" json:"title,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
