package service

import (
	"context"
	"strings"

	"github.com/vinyareddy314/cms-go/internal/models"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
)

type topicRepository interface {
	List(ctx context.Context) ([]models.Topic, error)
	Create(ctx context.Context, name string) (*models.Topic, error)
}

// TopicService manages the catalog topic vocabulary.
type TopicService struct {
	topics topicRepository
}

// NewTopicService creates a new topic service instance.
func NewTopicService(topics topicRepository) *TopicService {
	return &TopicService{topics: topics}
}

// List returns all topics ordered by name.
func (s *TopicService) List(ctx context.Context) ([]models.Topic, error) {
	topics, err := s.topics.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list topics")
	}
	return topics, nil
}

// Create adds a topic; names are trimmed and must be unique.
func (s *TopicService) Create(ctx context.Context, name string) (*models.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "topic name is required")
	}

	topic, err := s.topics.Create(ctx, name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "topic already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create topic")
	}
	return topic, nil
}
