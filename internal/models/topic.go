package models

// Topic labels programs for catalog filtering.
type Topic struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
