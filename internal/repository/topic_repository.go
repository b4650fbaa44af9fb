package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vinyareddy314/cms-go/internal/models"
)

// TopicRepository handles persistence for catalog topics.
type TopicRepository struct {
	db *sqlx.DB
}

// NewTopicRepository instantiates a topic repository.
func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

// List returns all topics ordered by name.
func (r *TopicRepository) List(ctx context.Context) ([]models.Topic, error) {
	const query = `SELECT id, name FROM topics ORDER BY name ASC`
	var topics []models.Topic
	if err := r.db.SelectContext(ctx, &topics, query); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// Create inserts a topic, returning the generated identifier.
func (r *TopicRepository) Create(ctx context.Context, name string) (*models.Topic, error) {
	const query = `INSERT INTO topics (name) VALUES ($1) RETURNING id, name`
	var topic models.Topic
	if err := r.db.GetContext(ctx, &topic, query, name); err != nil {
		return nil, fmt.Errorf("create topic: %w", err)
	}
	return &topic, nil
}
