package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrNoFieldsToUpdate is returned when a partial update carries no set fields.
var ErrNoFieldsToUpdate = errors.New("no fields to update")

// Category classifies an item.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryBooks       Category = "books"
	CategoryHome        Category = "home"
	CategorySports      Category = "sports"
	CategoryOther       Category = "other"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryBooks, CategoryHome, CategorySports, CategoryOther:
		return true
	}
	return false
}

// Item represents a catalog item. Category, Tags and IsActive are nullable in
// the store so that records written before those fields existed still load;
// Normalize fills the documented defaults at the read boundary.
type Item struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null" validate:"required,min=1,max=100"`
	Description *string   `json:"description" gorm:"type:varchar(500)" validate:"omitempty,max=500"`
	Price       float64   `json:"price" gorm:"not null" validate:"required,gt=0"`
	Quantity    int       `json:"quantity" gorm:"not null" validate:"gte=0"`
	Category    Category  `json:"category" gorm:"type:varchar(20);index" validate:"omitempty,oneof=electronics clothing books home sports other"`
	Tags        []string  `json:"tags" gorm:"type:text;serializer:json" validate:"omitempty,dive,min=1,max=50,excludesall=0x22"`
	IsActive    *bool     `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Normalize applies defaults for fields absent in older records:
// category -> other, tags -> empty list, is_active -> true.
func (i *Item) Normalize() {
	if i.Category == "" {
		i.Category = CategoryOther
	}
	if i.Tags == nil {
		i.Tags = []string{}
	}
	if i.IsActive == nil {
		active := true
		i.IsActive = &active
	}
}

// AfterFind runs Normalize once at the deserialization boundary.
func (i *Item) AfterFind(*gorm.DB) error {
	i.Normalize()
	return nil
}

// ItemUpdate carries the optional fields of a partial item update.
// Nil fields are left untouched.
type ItemUpdate struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string   `json:"description" validate:"omitempty,max=500"`
	Price       *float64  `json:"price" validate:"omitempty,gt=0"`
	Quantity    *int      `json:"quantity" validate:"omitempty,gte=0"`
	Category    *Category `json:"category" validate:"omitempty,oneof=electronics clothing books home sports other"`
	Tags        []string  `json:"tags" validate:"omitempty,dive,min=1,max=50,excludesall=0x22"`
	IsActive    *bool     `json:"is_active"`
}

// Changes returns the set fields as a column/value map plus a refreshed
// updated_at, or ErrNoFieldsToUpdate when nothing is set.
func (u ItemUpdate) Changes() (map[string]interface{}, error) {
	changes := map[string]interface{}{}
	if u.Name != nil {
		changes["name"] = *u.Name
	}
	if u.Description != nil {
		changes["description"] = *u.Description
	}
	if u.Price != nil {
		changes["price"] = *u.Price
	}
	if u.Quantity != nil {
		changes["quantity"] = *u.Quantity
	}
	if u.Category != nil {
		changes["category"] = *u.Category
	}
	if u.Tags != nil {
		changes["tags"] = u.Tags
	}
	if u.IsActive != nil {
		changes["is_active"] = *u.IsActive
	}
	if len(changes) == 0 {
		return nil, ErrNoFieldsToUpdate
	}
	changes["updated_at"] = time.Now().UTC()
	return changes, nil
}

// Apply merges the set fields into item and re-stamps UpdatedAt.
// CreatedAt is preserved from the original record.
func (u ItemUpdate) Apply(item *Item) error {
	if u.Name == nil && u.Description == nil && u.Price == nil && u.Quantity == nil &&
		u.Category == nil && u.Tags == nil && u.IsActive == nil {
		return ErrNoFieldsToUpdate
	}
	if u.Name != nil {
		item.Name = *u.Name
	}
	if u.Description != nil {
		item.Description = u.Description
	}
	if u.Price != nil {
		item.Price = *u.Price
	}
	if u.Quantity != nil {
		item.Quantity = *u.Quantity
	}
	if u.Category != nil {
		item.Category = *u.Category
	}
	if u.Tags != nil {
		item.Tags = u.Tags
	}
	if u.IsActive != nil {
		item.IsActive = u.IsActive
	}
	item.UpdatedAt = time.Now().UTC()
	return nil
}

// ItemFilter describes the optional constraints of an item listing.
// Each present field contributes a conjunctive constraint.
type ItemFilter struct {
	Category Category
	MinPrice *float64
	MaxPrice *float64
	IsActive *bool
	Tags     []string
	Search   string
}

// Matches reports whether item satisfies every present constraint.
// Tag filtering uses match-any semantics; free-text search is a
// case-insensitive substring match over name and description.
func (f ItemFilter) Matches(item Item) bool {
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && item.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && item.Price > *f.MaxPrice {
		return false
	}
	if f.IsActive != nil {
		active := item.IsActive == nil || *item.IsActive
		if active != *f.IsActive {
			return false
		}
	}
	if len(f.Tags) > 0 && !tagsIntersect(item.Tags, f.Tags) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		inName := strings.Contains(strings.ToLower(item.Name), q)
		inDesc := item.Description != nil && strings.Contains(strings.ToLower(*item.Description), q)
		if !inName && !inDesc {
			return false
		}
	}
	return true
}

func tagsIntersect(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// CategoryStat aggregates items of one category.
type CategoryStat struct {
	Category   Category `json:"category"`
	Count      int64    `json:"count"`
	TotalValue float64  `json:"total_value"`
	AvgPrice   float64  `json:"avg_price"`
}

// ItemStats is the /stats/items response.
type ItemStats struct {
	TotalItems    int64          `json:"total_items"`
	ActiveItems   int64          `json:"active_items"`
	InactiveItems int64          `json:"inactive_items"`
	ByCategory    []CategoryStat `json:"by_category"`
}
