package handlers

import (
	"log"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"catalog/internal/models"
	"catalog/internal/services"
)

const (
	itemListMaxLimit   = 100
	itemSearchMaxLimit = 50
	searchQueryMaxLen  = 100
)

// ItemHandler handles HTTP requests for items.
type ItemHandler struct {
	service  *services.ItemService
	validate *validator.Validate
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(service *services.ItemService) *ItemHandler {
	return &ItemHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the item routes with the Fiber app.
// The static /search route must precede the :id parameter route.
func (h *ItemHandler) RegisterRoutes(router fiber.Router) {
	itemRoutes := router.Group("/items")
	itemRoutes.Post("/", h.HandleCreateItem)
	itemRoutes.Get("/", h.HandleListItems)
	itemRoutes.Get("/search", h.HandleSearchItems)
	itemRoutes.Get("/:id", h.HandleGetItem)
	itemRoutes.Put("/:id", h.HandleUpdateItem)
	itemRoutes.Delete("/:id", h.HandleDeleteItem)
}

// HandleCreateItem creates a new item. The ID and timestamps are
// server-assigned; any caller-supplied values are discarded.
func (h *ItemHandler) HandleCreateItem(c *fiber.Ctx) error {
	var item models.Item
	if err := c.BodyParser(&item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	item.ID = ""

	if err := h.validate.Struct(item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	created, err := h.service.CreateItem(&item)
	if err != nil {
		log.Printf("Error creating item: %v", err)
		return respondError(c, err, "Could not create item")
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// HandleListItems retrieves items with filtering and pagination.
func (h *ItemHandler) HandleListItems(c *fiber.Ctx) error {
	skip, limit, err := parsePagination(c, itemListMaxLimit)
	if err != nil {
		return badRequest(c, err.Error())
	}

	filter, err := parseItemFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	items, total, err := h.service.ListItems(*filter, skip, limit)
	if err != nil {
		log.Printf("Error listing items: %v", err)
		return respondError(c, err, "Could not retrieve items")
	}

	return c.JSON(models.ItemList{
		Items:    items,
		PageInfo: models.NewPageInfo(skip, limit, total),
	})
}

// HandleSearchItems performs a free-text substring search over item names
// and descriptions.
func (h *ItemHandler) HandleSearchItems(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return badRequest(c, "q is required")
	}
	if utf8.RuneCountInString(query) > searchQueryMaxLen {
		return badRequest(c, "q must be at most 100 characters")
	}
	limit, err := queryInt(c, "limit", 10)
	if err != nil || limit < 1 || limit > itemSearchMaxLimit {
		return badRequest(c, "limit must be an integer between 1 and 50")
	}

	items, err := h.service.SearchItems(query, limit)
	if err != nil {
		log.Printf("Error searching items: %v", err)
		return respondError(c, err, "Could not search items")
	}
	return c.JSON(items)
}

// HandleGetItem retrieves a single item by its ID.
func (h *ItemHandler) HandleGetItem(c *fiber.Ctx) error {
	id := c.Params("id")
	item, err := h.service.GetItem(id)
	if err != nil {
		log.Printf("Error getting item %s: %v", id, err)
		return respondError(c, err, "Could not retrieve item")
	}
	return c.JSON(item)
}

// HandleUpdateItem applies a partial update to an item. A body with no set
// fields is rejected.
func (h *ItemHandler) HandleUpdateItem(c *fiber.Ctx) error {
	id := c.Params("id")

	var update models.ItemUpdate
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

	item, err := h.service.UpdateItem(id, update)
	if err != nil {
		log.Printf("Error updating item %s: %v", id, err)
		return respondError(c, err, "Could not update item")
	}
	return c.JSON(item)
}

// HandleDeleteItem deletes an item by its ID.
func (h *ItemHandler) HandleDeleteItem(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteItem(id); err != nil {
		log.Printf("Error deleting item %s: %v", id, err)
		return respondError(c, err, "Could not delete item")
	}
	return c.JSON(fiber.Map{
		"message": "Item deleted successfully",
	})
}

// HandleItemStats returns per-category aggregates.
func (h *ItemHandler) HandleItemStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats()
	if err != nil {
		log.Printf("Error aggregating item stats: %v", err)
		return respondError(c, err, "Could not compute item stats")
	}
	return c.JSON(stats)
}

// parseItemFilter reads the optional filter query parameters. Tags are
// passed comma-separated.
func parseItemFilter(c *fiber.Ctx) (*models.ItemFilter, error) {
	filter := &models.ItemFilter{}

	if category := c.Query("category"); category != "" {
		if !models.Category(category).Valid() {
			return nil, errInvalidParam("category")
		}
		filter.Category = models.Category(category)
	}

	var err error
	if filter.MinPrice, err = queryOptionalFloat(c, "min_price"); err != nil {
		return nil, err
	}
	if filter.MaxPrice, err = queryOptionalFloat(c, "max_price"); err != nil {
		return nil, err
	}
	if filter.IsActive, err = queryOptionalBool(c, "is_active"); err != nil {
		return nil, err
	}

	if search := c.Query("search"); search != "" {
		if utf8.RuneCountInString(search) > searchQueryMaxLen {
			return nil, errInvalidParam("search")
		}
		filter.Search = search
	}

	if tags := c.Query("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}
	return filter, nil
}
