package repositories

import (
	"fmt"
	"sort"
	"sync"

	"catalog/internal/models"
)

// MockArticleRepository is an in-memory implementation of ArticleRepository.
// Filtering reuses the pure models.ArticleFilter predicate so its semantics
// match the GORM implementation's SQL clauses.
type MockArticleRepository struct {
	articles map[string]models.Article
	mu       sync.RWMutex
}

// NewMockArticleRepository creates a new instance of MockArticleRepository.
func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{
		articles: make(map[string]models.Article),
	}
}

// Create adds a new article under its caller-assigned ID.
func (r *MockArticleRepository) Create(article *models.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.articles[article.ID]; ok {
		return fmt.Errorf("article with id %s %w", article.ID, ErrDuplicate)
	}
	article.Normalize()
	r.articles[article.ID] = *article
	return nil
}

// GetByID returns an article by its ID.
func (r *MockArticleRepository) GetByID(id string) (*models.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	article, ok := r.articles[id]
	if !ok {
		return nil, fmt.Errorf("article with id %s %w", id, ErrNotFound)
	}
	article.Normalize()
	return &article, nil
}

// List returns a page of matching articles, newest first, with the total
// count.
func (r *MockArticleRepository) List(filter models.ArticleFilter, skip, limit int) ([]models.Article, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.matching(filter)
	total := int64(len(matched))
	if skip >= len(matched) {
		return []models.Article{}, total, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// Search returns up to limit articles matching the filter.
func (r *MockArticleRepository) Search(filter models.ArticleFilter, limit int) ([]models.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.matching(filter)
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// Update merges the set fields of update into an existing article.
func (r *MockArticleRepository) Update(id string, update models.ArticleUpdate) (*models.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	article, ok := r.articles[id]
	if !ok {
		return nil, fmt.Errorf("article with id %s %w", id, ErrNotFound)
	}
	if err := update.Apply(&article); err != nil {
		return nil, err
	}
	r.articles[id] = article
	return &article, nil
}

// Delete removes an article by its ID.
func (r *MockArticleRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.articles[id]; !ok {
		return fmt.Errorf("article with id %s %w", id, ErrNotFound)
	}
	delete(r.articles, id)
	return nil
}

// ReplaceAll clears the collection and inserts the given articles.
func (r *MockArticleRepository) ReplaceAll(articles []models.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]models.Article, len(articles))
	for _, article := range articles {
		article.Normalize()
		next[article.ID] = article
	}
	r.articles = next
	return nil
}

// Themes returns the distinct themes present in the store.
func (r *MockArticleRepository) Themes() ([]models.Theme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[models.Theme]bool)
	for _, article := range r.articles {
		article.Normalize()
		seen[article.Theme] = true
	}
	themes := make([]models.Theme, 0, len(seen))
	for theme := range seen {
		themes = append(themes, theme)
	}
	sort.Slice(themes, func(i, j int) bool { return themes[i] < themes[j] })
	return themes, nil
}

// Count returns the total number of articles.
func (r *MockArticleRepository) Count() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.articles)), nil
}

// Stats aggregates articles per theme.
func (r *MockArticleRepository) Stats() (*models.ArticleStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byTheme := make(map[models.Theme]int64)
	for _, article := range r.articles {
		article.Normalize()
		byTheme[article.Theme]++
	}
	stats := &models.ArticleStats{
		TotalArticles:      int64(len(r.articles)),
		AvailableLanguages: []models.Language{models.LanguageTamil, models.LanguageEnglish},
	}
	for theme, count := range byTheme {
		stats.ByTheme = append(stats.ByTheme, models.ThemeStat{Theme: theme, Count: count})
	}
	sort.Slice(stats.ByTheme, func(i, j int) bool { return stats.ByTheme[i].Theme < stats.ByTheme[j].Theme })
	return stats, nil
}

func (r *MockArticleRepository) matching(filter models.ArticleFilter) []models.Article {
	matched := make([]models.Article, 0, len(r.articles))
	for _, article := range r.articles {
		article.Normalize()
		if filter.Matches(article) {
			matched = append(matched, article)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}
