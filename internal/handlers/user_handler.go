package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"catalog/internal/models"
	"catalog/internal/services"
)

const userListMaxLimit = 100

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	service  *services.UserService
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Get("/", h.HandleListUsers)
}

// HandleCreateUser creates a new user. Duplicate usernames or emails are
// rejected with a conflict.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	user.ID = ""

	if err := h.validate.Struct(user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	created, err := h.service.CreateUser(&user)
	if err != nil {
		log.Printf("Error creating user: %v", err)
		return respondError(c, err, "Could not create user")
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// HandleListUsers retrieves users with filtering and pagination.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	skip, limit, err := parsePagination(c, userListMaxLimit)
	if err != nil {
		return badRequest(c, err.Error())
	}

	filter := models.UserFilter{}
	if role := c.Query("role"); role != "" {
		if !models.Role(role).Valid() {
			return badRequest(c, errInvalidParam("role").Error())
		}
		filter.Role = models.Role(role)
	}
	if filter.IsActive, err = queryOptionalBool(c, "is_active"); err != nil {
		return badRequest(c, err.Error())
	}

	users, err := h.service.ListUsers(filter, skip, limit)
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return respondError(c, err, "Could not retrieve users")
	}
	return c.JSON(users)
}
