package repositories

import "catalog/internal/models"

// ArticleRepository defines the interface for article data access.
type ArticleRepository interface {
	Create(article *models.Article) error
	GetByID(id string) (*models.Article, error)
	List(filter models.ArticleFilter, skip, limit int) ([]models.Article, int64, error)
	Search(filter models.ArticleFilter, limit int) ([]models.Article, error)
	Update(id string, update models.ArticleUpdate) (*models.Article, error)
	Delete(id string) error
	ReplaceAll(articles []models.Article) error
	Themes() ([]models.Theme, error)
	Count() (int64, error)
	Stats() (*models.ArticleStats, error)
}
