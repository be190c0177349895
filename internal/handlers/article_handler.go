package handlers

import (
	"log"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"catalog/internal/models"
	"catalog/internal/services"
)

const articleMaxLimit = 50

// ArticleHandler handles HTTP requests for articles.
type ArticleHandler struct {
	service     *services.ArticleService
	contentFile string
	validate    *validator.Validate
}

// NewArticleHandler creates a new ArticleHandler. contentFile is the path of
// the JSON document served by the bulk upload endpoint.
func NewArticleHandler(service *services.ArticleService, contentFile string) *ArticleHandler {
	return &ArticleHandler{
		service:     service,
		contentFile: contentFile,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the article routes with the Fiber app.
// Static routes must precede the :id parameter routes.
func (h *ArticleHandler) RegisterRoutes(router fiber.Router) {
	articleRoutes := router.Group("/articles")
	articleRoutes.Post("/", h.HandleCreateArticle)
	articleRoutes.Get("/", h.HandleListArticles)
	articleRoutes.Get("/search", h.HandleSearchArticles)
	articleRoutes.Get("/themes", h.HandleThemes)
	articleRoutes.Post("/upload", h.HandleUpload)
	articleRoutes.Get("/:id", h.HandleGetArticle)
	articleRoutes.Put("/:id", h.HandleUpdateArticle)
	articleRoutes.Delete("/:id", h.HandleDeleteArticle)
}

// HandleCreateArticle creates a new article under its caller-assigned ID.
func (h *ArticleHandler) HandleCreateArticle(c *fiber.Ctx) error {
	var article models.Article
	if err := c.BodyParser(&article); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(article); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	created, err := h.service.CreateArticle(&article)
	if err != nil {
		log.Printf("Error creating article: %v", err)
		return respondError(c, err, "Could not create article")
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// HandleListArticles retrieves article summaries with filtering and
// pagination.
func (h *ArticleHandler) HandleListArticles(c *fiber.Ctx) error {
	skip, limit, err := parsePagination(c, articleMaxLimit)
	if err != nil {
		return badRequest(c, err.Error())
	}

	filter := models.ArticleFilter{}
	if theme := c.Query("theme"); theme != "" {
		if !models.Theme(theme).Valid() {
			return badRequest(c, errInvalidParam("theme").Error())
		}
		filter.Theme = models.Theme(theme)
	}
	if search := c.Query("search"); search != "" {
		if utf8.RuneCountInString(search) > searchQueryMaxLen {
			return badRequest(c, "search must be at most 100 characters")
		}
		filter.Search = search
	}

	summaries, total, err := h.service.ListArticles(filter, skip, limit)
	if err != nil {
		log.Printf("Error listing articles: %v", err)
		return respondError(c, err, "Could not retrieve articles")
	}

	return c.JSON(models.ArticleList{
		Articles: summaries,
		PageInfo: models.NewPageInfo(skip, limit, total),
	})
}

// HandleSearchArticles performs a free-text substring search over article
// titles and content, optionally scoped to one language.
func (h *ArticleHandler) HandleSearchArticles(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return badRequest(c, "q is required")
	}
	if utf8.RuneCountInString(query) > searchQueryMaxLen {
		return badRequest(c, "q must be at most 100 characters")
	}

	var language models.Language
	if raw := c.Query("language"); raw != "" {
		if !models.Language(raw).Valid() {
			return badRequest(c, errInvalidParam("language").Error())
		}
		language = models.Language(raw)
	}

	limit, err := queryInt(c, "limit", 10)
	if err != nil || limit < 1 || limit > articleMaxLimit {
		return badRequest(c, "limit must be an integer between 1 and 50")
	}

	summaries, err := h.service.SearchArticles(query, language, limit)
	if err != nil {
		log.Printf("Error searching articles: %v", err)
		return respondError(c, err, "Could not search articles")
	}
	return c.JSON(summaries)
}

// HandleGetArticle retrieves a single article by its ID.
func (h *ArticleHandler) HandleGetArticle(c *fiber.Ctx) error {
	id := c.Params("id")
	article, err := h.service.GetArticle(id)
	if err != nil {
		log.Printf("Error getting article %s: %v", id, err)
		return respondError(c, err, "Could not retrieve article")
	}
	return c.JSON(article)
}

// HandleUpdateArticle applies a partial update to an article. A body with no
// set fields is rejected.
func (h *ArticleHandler) HandleUpdateArticle(c *fiber.Ctx) error {
	id := c.Params("id")

	var update models.ArticleUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	article, err := h.service.UpdateArticle(id, update)
	if err != nil {
		log.Printf("Error updating article %s: %v", id, err)
		return respondError(c, err, "Could not update article")
	}
	return c.JSON(article)
}

// HandleDeleteArticle deletes an article by its ID.
func (h *ArticleHandler) HandleDeleteArticle(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteArticle(id); err != nil {
		log.Printf("Error deleting article %s: %v", id, err)
		return respondError(c, err, "Could not delete article")
	}
	return c.JSON(fiber.Map{
		"message": "Article deleted successfully",
	})
}

// HandleUpload bulk-loads articles from the configured content file,
// replacing the whole collection.
func (h *ArticleHandler) HandleUpload(c *fiber.Ctx) error {
	result, err := h.service.LoadFromFile(h.contentFile)
	if err != nil {
		log.Printf("Error uploading articles from %s: %v", h.contentFile, err)
		return respondError(c, err, "Could not upload articles")
	}
	return c.JSON(result)
}

// HandleThemes returns the distinct themes present in the store.
func (h *ArticleHandler) HandleThemes(c *fiber.Ctx) error {
	themes, err := h.service.Themes()
	if err != nil {
		log.Printf("Error listing themes: %v", err)
		return respondError(c, err, "Could not retrieve themes")
	}
	return c.JSON(themes)
}

// HandleArticleStats returns per-theme aggregates.
func (h *ArticleHandler) HandleArticleStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats()
	if err != nil {
		log.Printf("Error aggregating article stats: %v", err)
		return respondError(c, err, "Could not compute article stats")
	}
	return c.JSON(stats)
}
