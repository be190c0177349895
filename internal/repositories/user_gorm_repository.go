package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"catalog/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create inserts a new user, assigning a UUID when the ID is empty.
// A unique-index violation on username or email surfaces as ErrDuplicate.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("user %s %w", user.Username, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	return r.getBy("id", id)
}

// GetByUsername retrieves a user by their username.
func (r *GORMUserRepository) GetByUsername(username string) (*models.User, error) {
	return r.getBy("username", username)
}

// GetByEmail retrieves a user by their email.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	return r.getBy("email", email)
}

func (r *GORMUserRepository) getBy(field, value string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, field+" = ?", value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with %s %s %w", field, value, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s %s: %w", field, value, err)
	}
	return &user, nil
}

// List retrieves a page of users matching the filter, newest first.
func (r *GORMUserRepository) List(filter models.UserFilter, skip, limit int) ([]models.User, error) {
	db := r.db
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		if *filter.IsActive {
			db = db.Where("is_active = ? OR is_active IS NULL", true)
		} else {
			db = db.Where("is_active = ?", false)
		}
	}

	var users []models.User
	err := db.Order("created_at DESC").Offset(skip).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
