package repositories

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"catalog/internal/models"
)

// GORMArticleRepository is a GORM implementation of ArticleRepository.
type GORMArticleRepository struct {
	db *gorm.DB
}

// NewGORMArticleRepository creates a new instance of GORMArticleRepository.
func NewGORMArticleRepository(db *gorm.DB) *GORMArticleRepository {
	return &GORMArticleRepository{
		db: db,
	}
}

// articleFilterScope translates an ArticleFilter into conjunctive WHERE
// clauses. Text search runs over the title columns and the derived
// lowercase search columns; a set language restricts the disjunction to
// that language's fields. The semantics mirror models.ArticleFilter.Matches.
func articleFilterScope(f models.ArticleFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Theme != "" {
			db = db.Where("theme = ?", f.Theme)
		}
		if f.Search != "" {
			q := "%" + strings.ToLower(f.Search) + "%"
			tamil := "LOWER(title_tamil) LIKE ? OR search_tamil LIKE ?"
			english := "LOWER(title_english) LIKE ? OR search_english LIKE ?"
			switch f.Language {
			case models.LanguageTamil:
				db = db.Where("("+tamil+")", q, q)
			case models.LanguageEnglish:
				db = db.Where("("+english+")", q, q)
			default:
				db = db.Where("("+tamil+" OR "+english+")", q, q, q, q)
			}
		}
		return db
	}
}

// Create inserts a new article under its caller-assigned ID.
func (r *GORMArticleRepository) Create(article *models.Article) error {
	if err := r.db.Create(article).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("article with id %s %w", article.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create article: %w", err)
	}
	return nil
}

// GetByID retrieves a single article by its ID.
func (r *GORMArticleRepository) GetByID(id string) (*models.Article, error) {
	var article models.Article
	if err := r.db.First(&article, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("article with id %s %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get article by id %s: %w", id, err)
	}
	return &article, nil
}

// List retrieves a page of articles matching the filter, newest first, along
// with the total number of matching records.
func (r *GORMArticleRepository) List(filter models.ArticleFilter, skip, limit int) ([]models.Article, int64, error) {
	var total int64
	if err := r.db.Model(&models.Article{}).Scopes(articleFilterScope(filter)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count articles: %w", err)
	}

	var articles []models.Article
	err := r.db.Scopes(articleFilterScope(filter)).
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list articles: %w", err)
	}
	return articles, total, nil
}

// Search retrieves up to limit articles matching the filter, newest first.
func (r *GORMArticleRepository) Search(filter models.ArticleFilter, limit int) ([]models.Article, error) {
	var articles []models.Article
	err := r.db.Scopes(articleFilterScope(filter)).
		Order("created_at DESC").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	return articles, nil
}

// Update merges the set fields of update into the stored article and saves
// it. CreatedAt is preserved; UpdatedAt is re-stamped by the patch.
func (r *GORMArticleRepository) Update(id string, update models.ArticleUpdate) (*models.Article, error) {
	article, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := update.Apply(article); err != nil {
		return nil, err
	}
	if err := r.db.Save(article).Error; err != nil {
		return nil, fmt.Errorf("failed to update article %s: %w", id, err)
	}
	return article, nil
}

// Delete removes an article by its ID.
func (r *GORMArticleRepository) Delete(id string) error {
	res := r.db.Delete(&models.Article{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete article %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("article with id %s %w", id, ErrNotFound)
	}
	return nil
}

// ReplaceAll clears the collection and inserts the given articles in one
// transaction, so a bulk load either lands completely or not at all.
func (r *GORMArticleRepository) ReplaceAll(articles []models.Article) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Article{}).Error; err != nil {
			return fmt.Errorf("failed to clear articles: %w", err)
		}
		if len(articles) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(articles, 100).Error; err != nil {
			return fmt.Errorf("failed to insert articles: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace articles: %w", err)
	}
	return nil
}

// Themes returns the distinct themes present in the store.
func (r *GORMArticleRepository) Themes() ([]models.Theme, error) {
	var themes []models.Theme
	err := r.db.Model(&models.Article{}).
		Distinct().
		Order("theme").
		Pluck("theme", &themes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	return themes, nil
}

// Count returns the total number of articles.
func (r *GORMArticleRepository) Count() (int64, error) {
	var total int64
	if err := r.db.Model(&models.Article{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return total, nil
}

type themeRow struct {
	Theme string
	Count int64
}

// Stats aggregates articles per theme. Records without a stored theme count
// toward "gray".
func (r *GORMArticleRepository) Stats() (*models.ArticleStats, error) {
	var rows []themeRow
	err := r.db.Model(&models.Article{}).
		Select("COALESCE(NULLIF(theme, ''), 'gray') AS theme, COUNT(*) AS count").
		Group("COALESCE(NULLIF(theme, ''), 'gray')").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate article stats: %w", err)
	}

	stats := &models.ArticleStats{
		ByTheme:            make([]models.ThemeStat, 0, len(rows)),
		AvailableLanguages: []models.Language{models.LanguageTamil, models.LanguageEnglish},
	}
	for _, row := range rows {
		stats.ByTheme = append(stats.ByTheme, models.ThemeStat{
			Theme: models.Theme(row.Theme),
			Count: row.Count,
		})
		stats.TotalArticles += row.Count
	}
	return stats, nil
}
