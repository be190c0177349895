package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"catalog/internal/excerpt"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/pkg/rabbitmq"
)

// ErrMalformedDocument marks a structurally invalid bulk upload document.
var ErrMalformedDocument = errors.New("malformed upload document")

// UploadResult reports the outcome of a bulk article load.
type UploadResult struct {
	Message       string   `json:"message"`
	UploadedCount int      `json:"uploaded_count"`
	Articles      []string `json:"articles"`
}

// ArticleService handles business logic related to articles.
type ArticleService struct {
	repo     repositories.ArticleRepository
	mqClient *rabbitmq.Client
}

// NewArticleService creates a new ArticleService. mqClient may be nil, in
// which case change events are not published.
func NewArticleService(repo repositories.ArticleRepository, mqClient *rabbitmq.Client) *ArticleService {
	return &ArticleService{
		repo:     repo,
		mqClient: mqClient,
	}
}

// CreateArticle creates a new article under its caller-assigned ID after
// checking the ID is free. The pre-check produces a friendlier error early;
// the primary key is the authoritative enforcement point.
func (s *ArticleService) CreateArticle(article *models.Article) (*models.Article, error) {
	if existing, err := s.repo.GetByID(article.ID); err == nil && existing != nil {
		return nil, fmt.Errorf("article with id '%s' %w", article.ID, repositories.ErrDuplicate)
	}

	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now
	article.Normalize()

	if err := s.repo.Create(article); err != nil {
		return nil, err
	}
	created, err := s.repo.GetByID(article.ID)
	if err != nil {
		return nil, err
	}

	s.publish("article.created", map[string]interface{}{"id": created.ID, "theme": created.Theme})
	return created, nil
}

// GetArticle retrieves a single article by its ID.
func (s *ArticleService) GetArticle(id string) (*models.Article, error) {
	return s.repo.GetByID(id)
}

// ListArticles retrieves a page of article summaries matching the filter
// with the total match count. Excerpts are bounded by the default length.
func (s *ArticleService) ListArticles(filter models.ArticleFilter, skip, limit int) ([]models.ArticleSummary, int64, error) {
	articles, total, err := s.repo.List(filter, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	return summarize(articles), total, nil
}

// SearchArticles retrieves up to limit article summaries whose scoped title
// or content fields contain the query as a case-insensitive substring.
func (s *ArticleService) SearchArticles(query string, language models.Language, limit int) ([]models.ArticleSummary, error) {
	articles, err := s.repo.Search(models.ArticleFilter{Search: query, Language: language}, limit)
	if err != nil {
		return nil, err
	}
	return summarize(articles), nil
}

// UpdateArticle merges a partial update into an existing article. An update
// with no set fields is rejected with models.ErrNoFieldsToUpdate.
func (s *ArticleService) UpdateArticle(id string, update models.ArticleUpdate) (*models.Article, error) {
	fields, err := update.Changes()
	if err != nil {
		return nil, err
	}

	article, err := s.repo.Update(id, update)
	if err != nil {
		return nil, err
	}

	s.publish("article.updated", map[string]interface{}{"id": article.ID, "fields": fields})
	return article, nil
}

// DeleteArticle removes an article by its ID.
func (s *ArticleService) DeleteArticle(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.publish("article.deleted", map[string]interface{}{"id": id})
	return nil
}

// Themes returns the distinct themes present in the store.
func (s *ArticleService) Themes() ([]models.Theme, error) {
	return s.repo.Themes()
}

// CountArticles returns the total number of articles.
func (s *ArticleService) CountArticles() (int64, error) {
	return s.repo.Count()
}

// Stats aggregates article statistics per theme.
func (s *ArticleService) Stats() (*models.ArticleStats, error) {
	return s.repo.Stats()
}

// LoadFromFile bulk-loads articles from a JSON content file, replacing the
// whole collection. A missing file surfaces as ErrNotFound, a structurally
// invalid or empty document as ErrMalformedDocument; nothing is inserted in
// either case.
func (s *ArticleService) LoadFromFile(path string) (*UploadResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("content file %s %w", path, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read content file %s: %w", path, err)
	}

	articles, err := ParseUploadDocument(raw)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceAll(articles); err != nil {
		return nil, err
	}

	ids := make([]string, len(articles))
	for i, article := range articles {
		ids[i] = article.ID
	}
	s.publish("articles.reloaded", map[string]interface{}{"count": len(articles)})

	return &UploadResult{
		Message:       "Articles uploaded successfully",
		UploadedCount: len(articles),
		Articles:      ids,
	}, nil
}

// ParseUploadDocument decodes an upload document and converts its pages to
// article records with defaults filled for missing title/theme/content.
func ParseUploadDocument(raw []byte) ([]models.Article, error) {
	var doc models.UploadDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedDocument, err)
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: no pages found", ErrMalformedDocument)
	}

	now := time.Now().UTC()
	articles := make([]models.Article, len(doc.Pages))
	for i, page := range doc.Pages {
		articles[i] = page.ToArticle(now)
	}
	return articles, nil
}

func summarize(articles []models.Article) []models.ArticleSummary {
	summaries := make([]models.ArticleSummary, len(articles))
	for i, article := range articles {
		summaries[i] = article.Summary(excerpt.DefaultMaxLength)
	}
	return summaries
}

// publish sends a catalog event best-effort; failures are logged, never
// surfaced to the caller.
func (s *ArticleService) publish(event string, data map[string]interface{}) {
	if s.mqClient == nil {
		return
	}
	if err := s.mqClient.PublishEvent(event, data); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", event, err)
	}
}
