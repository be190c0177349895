package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catalog/internal/handlers"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite and all
// handlers/services wired the same way as in main. Each test passes its own
// database name so tests do not share state.
func setupApp(t *testing.T, dbName, contentFile string) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to connect to in-memory database")

	err = db.AutoMigrate(&models.Item{}, &models.User{}, &models.Article{})
	require.NoError(t, err, "failed to auto-migrate database")

	itemRepo := repositories.NewGORMItemRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	articleRepo := repositories.NewGORMArticleRepository(db)

	itemService := services.NewItemService(itemRepo, nil) // nil for RabbitMQ client
	userService := services.NewUserService(userRepo, nil)
	articleService := services.NewArticleService(articleRepo, nil)

	itemHandler := handlers.NewItemHandler(itemService)
	userHandler := handlers.NewUserHandler(userService)
	articleHandler := handlers.NewArticleHandler(articleService, contentFile)

	app := fiber.New()
	itemHandler.RegisterRoutes(app)
	userHandler.RegisterRoutes(app)
	articleHandler.RegisterRoutes(app)
	app.Get("/stats/items", itemHandler.HandleItemStats)
	app.Get("/stats/articles", articleHandler.HandleArticleStats)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestItemLifecycle(t *testing.T) {
	app := setupApp(t, "item_lifecycle", "")

	// Create with minimal fields; server assigns ID and defaults.
	resp, body := doJSON(t, app, "POST", "/items", fiber.Map{
		"name": "Laptop", "price": 1200.50, "quantity": 5,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Item
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.CategoryOther, created.Category)
	require.NotNil(t, created.IsActive)
	assert.True(t, *created.IsActive)
	assert.NotNil(t, created.Tags)

	// Read back.
	resp, body = doJSON(t, app, "GET", "/items/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Item
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Laptop", fetched.Name)

	// Partial update.
	resp, body = doJSON(t, app, "PUT", "/items/"+created.ID, fiber.Map{"price": 999.99})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Item
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, 999.99, updated.Price)
	assert.Equal(t, "Laptop", updated.Name)

	// Empty update body is rejected.
	resp, _ = doJSON(t, app, "PUT", "/items/"+created.ID, fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Delete, then the item is gone.
	resp, _ = doJSON(t, app, "DELETE", "/items/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, "GET", "/items/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, app, "DELETE", "/items/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateItemValidation(t *testing.T) {
	app := setupApp(t, "item_validation", "")

	cases := []fiber.Map{
		{"price": 10.0, "quantity": 1},                 // missing name
		{"name": "Bad", "price": -1.0, "quantity": 1},  // negative price
		{"name": "Bad", "price": 10.0, "quantity": -1}, // negative quantity
		{"name": "Bad", "price": 10.0, "quantity": 1, "category": "gadgets"},
	}
	for _, payload := range cases {
		resp, _ := doJSON(t, app, "POST", "/items", payload)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}

func TestListItemsPaginationAndFilters(t *testing.T) {
	app := setupApp(t, "item_listing", "")

	seed := []fiber.Map{
		{"name": "Laptop", "price": 1200.0, "quantity": 5, "category": "electronics", "tags": []string{"work", "portable"}},
		{"name": "Novel", "price": 15.0, "quantity": 30, "category": "books", "tags": []string{"fiction"}},
		{"name": "Desk lamp", "price": 35.0, "quantity": 12, "category": "home", "is_active": false},
	}
	for _, payload := range seed {
		resp, _ := doJSON(t, app, "POST", "/items", payload)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	// First page of two.
	resp, body := doJSON(t, app, "GET", "/items?limit=2", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.ItemList
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrevious)

	// Last page.
	resp, body = doJSON(t, app, "GET", "/items?limit=2&skip=2", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)

	// Category filter.
	resp, body = doJSON(t, app, "GET", "/items?category=books", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Novel", page.Items[0].Name)

	// Tag filter matches any listed tag.
	resp, body = doJSON(t, app, "GET", "/items?tags=portable,fiction", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, int64(2), page.Total)

	// is_active=true excludes the lamp.
	resp, body = doJSON(t, app, "GET", "/items?is_active=true", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, int64(2), page.Total)

	// Price range.
	resp, body = doJSON(t, app, "GET", "/items?min_price=20&max_price=100", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Desk lamp", page.Items[0].Name)

	// Invalid pagination parameters.
	for _, path := range []string{"/items?skip=-1", "/items?limit=0", "/items?limit=101", "/items?category=gadgets"} {
		resp, _ = doJSON(t, app, "GET", path, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}

func TestSearchItems(t *testing.T) {
	app := setupApp(t, "item_search", "")

	resp, _ := doJSON(t, app, "POST", "/items", fiber.Map{
		"name": "Gaming Laptop", "description": "Fast machine", "price": 2000.0, "quantity": 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, app, "POST", "/items", fiber.Map{
		"name": "Mouse", "description": "for laptops", "price": 25.0, "quantity": 40,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Case-insensitive, matches name or description.
	resp, body := doJSON(t, app, "GET", "/items/search?q=LAPTOP", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var results []models.Item
	require.NoError(t, json.Unmarshal(body, &results))
	assert.Len(t, results, 2)

	resp, _ = doJSON(t, app, "GET", "/items/search", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/items/search?q=laptop&limit=51", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchQueryCapCountsCharacters(t *testing.T) {
	app := setupApp(t, "query_caps", "")

	// 60 Tamil characters are ~180 bytes but within the 100-character cap.
	okQuery := url.QueryEscape(strings.Repeat("அ", 60))
	longQuery := url.QueryEscape(strings.Repeat("அ", 101))

	resp, _ := doJSON(t, app, "GET", "/items/search?q="+okQuery, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, "GET", "/items/search?q="+longQuery, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/articles/search?q="+okQuery, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, "GET", "/articles/search?q="+longQuery, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/items?search="+okQuery, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, "GET", "/articles?search="+okQuery, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestItemStats(t *testing.T) {
	app := setupApp(t, "item_stats", "")

	resp, _ := doJSON(t, app, "POST", "/items", fiber.Map{"name": "Laptop", "price": 1000.0, "quantity": 1, "category": "electronics"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, app, "POST", "/items", fiber.Map{"name": "Phone", "price": 500.0, "quantity": 2, "category": "electronics"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, app, "POST", "/items", fiber.Map{"name": "Lamp", "price": 30.0, "quantity": 4, "is_active": false})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, "GET", "/stats/items", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats models.ItemStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, int64(3), stats.TotalItems)
	assert.Equal(t, int64(2), stats.ActiveItems)
	assert.Equal(t, int64(1), stats.InactiveItems)
	require.Len(t, stats.ByCategory, 2)

	byCat := map[models.Category]models.CategoryStat{}
	for _, s := range stats.ByCategory {
		byCat[s.Category] = s
	}
	assert.Equal(t, int64(2), byCat[models.CategoryElectronics].Count)
	assert.Equal(t, 2000.0, byCat[models.CategoryElectronics].TotalValue)
	assert.Equal(t, 750.0, byCat[models.CategoryElectronics].AvgPrice)
	assert.Equal(t, int64(1), byCat[models.CategoryOther].Count)
}

func TestCreateUserConflicts(t *testing.T) {
	app := setupApp(t, "user_conflicts", "")

	resp, body := doJSON(t, app, "POST", "/users", fiber.Map{
		"username": "alice", "email": "alice@example.com",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.User
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.RoleUser, created.Role)
	require.NotNil(t, created.IsActive)
	assert.True(t, *created.IsActive)

	// Duplicate username.
	resp, _ = doJSON(t, app, "POST", "/users", fiber.Map{
		"username": "alice", "email": "alice2@example.com",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Duplicate email.
	resp, _ = doJSON(t, app, "POST", "/users", fiber.Map{
		"username": "alice2", "email": "alice@example.com",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Invalid email and short username.
	resp, _ = doJSON(t, app, "POST", "/users", fiber.Map{"username": "bob", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = doJSON(t, app, "POST", "/users", fiber.Map{"username": "ab", "email": "ab@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListUsersFilter(t *testing.T) {
	app := setupApp(t, "user_listing", "")

	users := []fiber.Map{
		{"username": "alice", "email": "alice@example.com", "role": "admin"},
		{"username": "bobby", "email": "bob@example.com"},
	}
	for _, payload := range users {
		resp, _ := doJSON(t, app, "POST", "/users", payload)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := doJSON(t, app, "GET", "/users?role=admin", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []models.User
	require.NoError(t, json.Unmarshal(body, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "alice", listed[0].Username)

	resp, _ = doJSON(t, app, "GET", "/users?role=superuser", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func articlePayload(id string) fiber.Map {
	return fiber.Map{
		"id":    id,
		"title": fiber.Map{"tamil": "அன்பு", "english": "Love"},
		"theme": "blue",
		"content": fiber.Map{
			"tamil":   []fiber.Map{{"type": "mainText", "value": "அன்பே வாழ்க்கை"}},
			"english": []fiber.Map{{"type": "mainText", "value": "Love one another as I have loved you"}},
		},
	}
}

func TestArticleLifecycle(t *testing.T) {
	app := setupApp(t, "article_lifecycle", "")

	resp, body := doJSON(t, app, "POST", "/articles", articlePayload("page1"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Article
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "page1", created.ID)
	assert.Equal(t, models.ThemeBlue, created.Theme)

	// Caller-assigned IDs conflict on reuse.
	resp, _ = doJSON(t, app, "POST", "/articles", articlePayload("page1"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Listing returns summaries with excerpts, not full content.
	resp, body = doJSON(t, app, "GET", "/articles", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.ArticleList
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Articles, 1)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, "Love one another as I have loved you", page.Articles[0].Excerpt.English)

	// Theme update.
	resp, body = doJSON(t, app, "PUT", "/articles/page1", fiber.Map{"theme": "green"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Article
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, models.ThemeGreen, updated.Theme)
	assert.Equal(t, "Love", updated.Title.English)

	resp, _ = doJSON(t, app, "PUT", "/articles/page1", fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "DELETE", "/articles/page1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, "GET", "/articles/page1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchArticles(t *testing.T) {
	app := setupApp(t, "article_search", "")

	resp, _ := doJSON(t, app, "POST", "/articles", articlePayload("page1"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Matches content in English.
	resp, body := doJSON(t, app, "GET", "/articles/search?q=loved", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var results []models.ArticleSummary
	require.NoError(t, json.Unmarshal(body, &results))
	assert.Len(t, results, 1)

	// Scoped to Tamil, the English content no longer matches.
	resp, body = doJSON(t, app, "GET", "/articles/search?q=loved&language=tamil", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &results))
	assert.Len(t, results, 0)

	resp, _ = doJSON(t, app, "GET", "/articles/search?q=loved&language=french", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = doJSON(t, app, "GET", "/articles/search", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestArticleUploadAndThemes(t *testing.T) {
	contentFile := filepath.Join(t.TempDir(), "content.json")
	app := setupApp(t, "article_upload", contentFile)

	// Upload replaces whatever is in the store.
	resp, _ := doJSON(t, app, "POST", "/articles", articlePayload("stale"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	doc := fiber.Map{"pages": []fiber.Map{
		{"id": "page1", "title": fiber.Map{"tamil": "நம்பிக்கை", "english": "Faith"}, "theme": "purple"},
		{"id": "page2", "theme": "green"},
		{"id": "page3"},
	}}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(contentFile, raw, 0o644))

	resp, body := doJSON(t, app, "POST", "/articles/upload", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result services.UploadResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 3, result.UploadedCount)
	assert.Equal(t, []string{"page1", "page2", "page3"}, result.Articles)

	resp, _ = doJSON(t, app, "GET", "/articles/stale", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Distinct themes, with the default filled for the bare page.
	resp, body = doJSON(t, app, "GET", "/articles/themes", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var themes []models.Theme
	require.NoError(t, json.Unmarshal(body, &themes))
	assert.ElementsMatch(t, []models.Theme{models.ThemePurple, models.ThemeGreen, models.ThemeGray}, themes)

	// A malformed document is rejected without replacing anything.
	require.NoError(t, os.WriteFile(contentFile, []byte(`{"pages": []}`), 0o644))
	resp, _ = doJSON(t, app, "POST", "/articles/upload", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = doJSON(t, app, "GET", "/articles/page1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A missing content file is reported as not found.
	require.NoError(t, os.Remove(contentFile))
	resp, _ = doJSON(t, app, "POST", "/articles/upload", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestArticleStats(t *testing.T) {
	app := setupApp(t, "article_stats", "")

	for i, theme := range []string{"blue", "blue", "warm"} {
		payload := articlePayload(fmt.Sprintf("page%d", i+1))
		payload["theme"] = theme
		resp, _ := doJSON(t, app, "POST", "/articles", payload)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := doJSON(t, app, "GET", "/stats/articles", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats models.ArticleStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, int64(3), stats.TotalArticles)

	byTheme := map[models.Theme]int64{}
	for _, s := range stats.ByTheme {
		byTheme[s.Theme] = s.Count
	}
	assert.Equal(t, int64(2), byTheme[models.ThemeBlue])
	assert.Equal(t, int64(1), byTheme[models.ThemeWarm])
}
