package repositories

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"catalog/internal/models"
)

// GORMItemRepository is a GORM implementation of ItemRepository.
type GORMItemRepository struct {
	db *gorm.DB
}

// NewGORMItemRepository creates a new instance of GORMItemRepository.
func NewGORMItemRepository(db *gorm.DB) *GORMItemRepository {
	return &GORMItemRepository{
		db: db,
	}
}

// itemFilterScope translates an ItemFilter into conjunctive WHERE clauses.
// The semantics mirror models.ItemFilter.Matches.
func itemFilterScope(f models.ItemFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Category != "" {
			db = db.Where("category = ?", f.Category)
		}
		if f.MinPrice != nil {
			db = db.Where("price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			db = db.Where("price <= ?", *f.MaxPrice)
		}
		if f.IsActive != nil {
			if *f.IsActive {
				// NULL means the record predates the column and defaults to active.
				db = db.Where("is_active = ? OR is_active IS NULL", true)
			} else {
				db = db.Where("is_active = ?", false)
			}
		}
		if len(f.Tags) > 0 {
			// Tags are stored as a JSON array in a text column; match-any is a
			// disjunction of quoted-element containment checks.
			conds := make([]string, 0, len(f.Tags))
			args := make([]interface{}, 0, len(f.Tags))
			for _, tag := range f.Tags {
				conds = append(conds, "tags LIKE ?")
				args = append(args, `%"`+tag+`"%`)
			}
			db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
		}
		if f.Search != "" {
			q := "%" + strings.ToLower(f.Search) + "%"
			db = db.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", q, q)
		}
		return db
	}
}

// Create inserts a new item, assigning a UUID when the ID is empty.
func (r *GORMItemRepository) Create(item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("item with ID %s %w", item.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// GetByID retrieves a single item by its ID.
func (r *GORMItemRepository) GetByID(id string) (*models.Item, error) {
	var item models.Item
	if err := r.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item with ID %s %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get item by ID %s: %w", id, err)
	}
	return &item, nil
}

// List retrieves a page of items matching the filter, newest first, along
// with the total number of matching records.
func (r *GORMItemRepository) List(filter models.ItemFilter, skip, limit int) ([]models.Item, int64, error) {
	var total int64
	if err := r.db.Model(&models.Item{}).Scopes(itemFilterScope(filter)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	var items []models.Item
	err := r.db.Scopes(itemFilterScope(filter)).
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	return items, total, nil
}

// Search retrieves up to limit items whose name or description contains the
// query as a case-insensitive substring, newest first.
func (r *GORMItemRepository) Search(query string, limit int) ([]models.Item, error) {
	var items []models.Item
	err := r.db.Scopes(itemFilterScope(models.ItemFilter{Search: query})).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	return items, nil
}

// Update merges the set fields of update into the stored item and saves it.
// CreatedAt is preserved; UpdatedAt is re-stamped by the patch.
func (r *GORMItemRepository) Update(id string, update models.ItemUpdate) (*models.Item, error) {
	item, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := update.Apply(item); err != nil {
		return nil, err
	}
	if err := r.db.Save(item).Error; err != nil {
		return nil, fmt.Errorf("failed to update item %s: %w", id, err)
	}
	return item, nil
}

// Delete removes an item by its ID.
func (r *GORMItemRepository) Delete(id string) error {
	res := r.db.Delete(&models.Item{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item with ID %s %w", id, ErrNotFound)
	}
	return nil
}

// Count returns the total number of items.
func (r *GORMItemRepository) Count() (int64, error) {
	var total int64
	if err := r.db.Model(&models.Item{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return total, nil
}

type categoryRow struct {
	Category   string
	Count      int64
	TotalValue float64
	AvgPrice   float64
}

// Stats aggregates items per category plus total/active/inactive counts.
// Records without a stored category count toward "other".
func (r *GORMItemRepository) Stats() (*models.ItemStats, error) {
	var rows []categoryRow
	err := r.db.Model(&models.Item{}).
		Select("COALESCE(NULLIF(category, ''), 'other') AS category, COUNT(*) AS count, SUM(price * quantity) AS total_value, AVG(price) AS avg_price").
		Group("COALESCE(NULLIF(category, ''), 'other')").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate item stats: %w", err)
	}

	stats := &models.ItemStats{ByCategory: make([]models.CategoryStat, 0, len(rows))}
	for _, row := range rows {
		stats.ByCategory = append(stats.ByCategory, models.CategoryStat{
			Category:   models.Category(row.Category),
			Count:      row.Count,
			TotalValue: round2(row.TotalValue),
			AvgPrice:   round2(row.AvgPrice),
		})
		stats.TotalItems += row.Count
	}

	err = r.db.Model(&models.Item{}).
		Where("is_active = ? OR is_active IS NULL", true).
		Count(&stats.ActiveItems).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active items: %w", err)
	}
	stats.InactiveItems = stats.TotalItems - stats.ActiveItems
	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
