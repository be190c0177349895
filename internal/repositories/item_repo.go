package repositories

import (
	"catalog/internal/models"
)

// ItemRepository defines the interface for item data access.
type ItemRepository interface {
	Create(item *models.Item) error
	GetByID(id string) (*models.Item, error)
	List(filter models.ItemFilter, skip, limit int) ([]models.Item, int64, error)
	Search(query string, limit int) ([]models.Item, error)
	Update(id string, update models.ItemUpdate) (*models.Item, error)
	Delete(id string) error
	Count() (int64, error)
	Stats() (*models.ItemStats, error)
}
