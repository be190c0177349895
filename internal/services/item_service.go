package services

import (
	"log"
	"time"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/pkg/rabbitmq"
)

// ItemService handles business logic related to catalog items.
type ItemService struct {
	repo     repositories.ItemRepository
	mqClient *rabbitmq.Client
}

// NewItemService creates a new ItemService. mqClient may be nil, in which
// case change events are not published.
func NewItemService(repo repositories.ItemRepository, mqClient *rabbitmq.Client) *ItemService {
	return &ItemService{
		repo:     repo,
		mqClient: mqClient,
	}
}

// CreateItem stamps timestamps and defaults, inserts the item, and reads it
// back in its stored shape.
func (s *ItemService) CreateItem(item *models.Item) (*models.Item, error) {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	item.Normalize()

	if err := s.repo.Create(item); err != nil {
		return nil, err
	}
	created, err := s.repo.GetByID(item.ID)
	if err != nil {
		return nil, err
	}

	s.publish("item.created", map[string]interface{}{
		"id":       created.ID,
		"name":     created.Name,
		"category": created.Category,
	})
	return created, nil
}

// GetItem retrieves a single item by its ID.
func (s *ItemService) GetItem(id string) (*models.Item, error) {
	return s.repo.GetByID(id)
}

// ListItems retrieves a page of items matching the filter with the total
// match count.
func (s *ItemService) ListItems(filter models.ItemFilter, skip, limit int) ([]models.Item, int64, error) {
	return s.repo.List(filter, skip, limit)
}

// SearchItems retrieves up to limit items whose name or description contains
// the query as a case-insensitive substring.
func (s *ItemService) SearchItems(query string, limit int) ([]models.Item, error) {
	return s.repo.Search(query, limit)
}

// UpdateItem merges a partial update into an existing item. An update with
// no set fields is rejected with models.ErrNoFieldsToUpdate.
func (s *ItemService) UpdateItem(id string, update models.ItemUpdate) (*models.Item, error) {
	changes, err := update.Changes()
	if err != nil {
		return nil, err
	}

	item, err := s.repo.Update(id, update)
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(changes))
	for field := range changes {
		fields = append(fields, field)
	}
	s.publish("item.updated", map[string]interface{}{
		"id":     item.ID,
		"fields": fields,
	})
	return item, nil
}

// DeleteItem removes an item by its ID.
func (s *ItemService) DeleteItem(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.publish("item.deleted", map[string]interface{}{"id": id})
	return nil
}

// CountItems returns the total number of items.
func (s *ItemService) CountItems() (int64, error) {
	return s.repo.Count()
}

// Stats aggregates item statistics per category.
func (s *ItemService) Stats() (*models.ItemStats, error) {
	return s.repo.Stats()
}

// publish sends a catalog event best-effort; failures are logged, never
// surfaced to the caller.
func (s *ItemService) publish(event string, data map[string]interface{}) {
	if s.mqClient == nil {
		return
	}
	if err := s.mqClient.PublishEvent(event, data); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", event, err)
	}
}
