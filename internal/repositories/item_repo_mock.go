package repositories

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"catalog/internal/models"
)

// MockItemRepository is an in-memory implementation of ItemRepository.
// Filtering reuses the pure models.ItemFilter predicate so its semantics
// match the GORM implementation's SQL clauses.
type MockItemRepository struct {
	items map[string]models.Item
	mu    sync.RWMutex
}

// NewMockItemRepository creates a new instance of MockItemRepository.
func NewMockItemRepository() *MockItemRepository {
	return &MockItemRepository{
		items: make(map[string]models.Item),
	}
}

// Create adds a new item, assigning a UUID when the ID is empty.
func (r *MockItemRepository) Create(item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if _, ok := r.items[item.ID]; ok {
		return fmt.Errorf("item with ID %s %w", item.ID, ErrDuplicate)
	}
	item.Normalize()
	r.items[item.ID] = *item
	return nil
}

// GetByID returns an item by its ID.
func (r *MockItemRepository) GetByID(id string) (*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("item with ID %s %w", id, ErrNotFound)
	}
	item.Normalize()
	return &item, nil
}

// List returns a page of matching items, newest first, with the total count.
func (r *MockItemRepository) List(filter models.ItemFilter, skip, limit int) ([]models.Item, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.matching(filter)
	total := int64(len(matched))
	return page(matched, skip, limit), total, nil
}

// Search returns up to limit items matching the free-text query.
func (r *MockItemRepository) Search(query string, limit int) ([]models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.matching(models.ItemFilter{Search: query})
	return page(matched, 0, limit), nil
}

// Update merges the set fields of update into an existing item.
func (r *MockItemRepository) Update(id string, update models.ItemUpdate) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("item with ID %s %w", id, ErrNotFound)
	}
	if err := update.Apply(&item); err != nil {
		return nil, err
	}
	r.items[id] = item
	return &item, nil
}

// Delete removes an item by its ID.
func (r *MockItemRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("item with ID %s %w", id, ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

// Count returns the total number of items.
func (r *MockItemRepository) Count() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}

// Stats aggregates items per category plus total/active/inactive counts.
func (r *MockItemRepository) Stats() (*models.ItemStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byCategory := make(map[models.Category]*models.CategoryStat)
	stats := &models.ItemStats{}
	for _, item := range r.items {
		item.Normalize()
		stats.TotalItems++
		if *item.IsActive {
			stats.ActiveItems++
		}
		cs, ok := byCategory[item.Category]
		if !ok {
			cs = &models.CategoryStat{Category: item.Category}
			byCategory[item.Category] = cs
		}
		cs.Count++
		cs.TotalValue += item.Price * float64(item.Quantity)
		cs.AvgPrice += item.Price
	}
	stats.InactiveItems = stats.TotalItems - stats.ActiveItems
	for _, cs := range byCategory {
		cs.AvgPrice = round2(cs.AvgPrice / float64(cs.Count))
		cs.TotalValue = round2(cs.TotalValue)
		stats.ByCategory = append(stats.ByCategory, *cs)
	}
	sort.Slice(stats.ByCategory, func(i, j int) bool {
		return stats.ByCategory[i].Category < stats.ByCategory[j].Category
	})
	return stats, nil
}

func (r *MockItemRepository) matching(filter models.ItemFilter) []models.Item {
	matched := make([]models.Item, 0, len(r.items))
	for _, item := range r.items {
		item.Normalize()
		if filter.Matches(item) {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}

func page(items []models.Item, skip, limit int) []models.Item {
	if skip >= len(items) {
		return []models.Item{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
