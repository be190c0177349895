package services

import (
	"fmt"
	"log"
	"time"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/pkg/rabbitmq"
)

// UserService handles business logic related to users.
type UserService struct {
	repo     repositories.UserRepository
	mqClient *rabbitmq.Client
}

// NewUserService creates a new UserService. mqClient may be nil, in which
// case change events are not published.
func NewUserService(repo repositories.UserRepository, mqClient *rabbitmq.Client) *UserService {
	return &UserService{
		repo:     repo,
		mqClient: mqClient,
	}
}

// CreateUser creates a new user after checking that the username and email
// are free. The pre-check only produces a friendlier error early; the
// store's unique indexes remain the authoritative enforcement point, so a
// concurrent duplicate create still surfaces as ErrDuplicate from Create.
func (s *UserService) CreateUser(user *models.User) (*models.User, error) {
	if existing, err := s.repo.GetByUsername(user.Username); err == nil && existing != nil {
		return nil, fmt.Errorf("username '%s' %w", user.Username, repositories.ErrDuplicate)
	}
	if existing, err := s.repo.GetByEmail(user.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("email '%s' %w", user.Email, repositories.ErrDuplicate)
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Normalize()

	if err := s.repo.Create(user); err != nil {
		return nil, err
	}
	created, err := s.repo.GetByID(user.ID)
	if err != nil {
		return nil, err
	}

	if s.mqClient != nil {
		err := s.mqClient.PublishEvent("user.created", map[string]interface{}{
			"id":       created.ID,
			"username": created.Username,
		})
		if err != nil {
			log.Printf("Warning: failed to publish user.created event: %v", err)
		}
	}
	return created, nil
}

// ListUsers retrieves a page of users matching the filter.
func (s *UserService) ListUsers(filter models.UserFilter, skip, limit int) ([]models.User, error) {
	return s.repo.List(filter, skip, limit)
}
