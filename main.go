package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"catalog/internal/handlers"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "catalog.db")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("CONTENT_FILE", "content.json")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	contentFile := viper.GetString("CONTENT_FILE")

	// --- Database ---
	db, err := openDatabase(viper.GetString("DB_DRIVER"), viper.GetString("DATABASE_DSN"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.Item{}, &models.User{}, &models.Article{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- RabbitMQ (optional) ---
	// The service runs without a broker; change events are then skipped.
	var mqClient *rabbitmq.Client
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if err != nil {
			log.Printf("Warning: RabbitMQ unavailable, continuing without events: %v", err)
			mqClient = nil
		} else {
			defer mqClient.Close()
		}
	}

	// --- Repositories ---
	itemRepo := repositories.NewGORMItemRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	articleRepo := repositories.NewGORMArticleRepository(db)

	// --- Services ---
	itemService := services.NewItemService(itemRepo, mqClient)
	userService := services.NewUserService(userRepo, mqClient)
	articleService := services.NewArticleService(articleRepo, mqClient)

	// --- Handlers ---
	itemHandler := handlers.NewItemHandler(itemService)
	userHandler := handlers.NewUserHandler(userService)
	articleHandler := handlers.NewArticleHandler(articleService, contentFile)

	// --- Fiber App ---
	app := fiber.New()
	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Catalog API is running!",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"items":    "/items/",
				"users":    "/users/",
				"articles": "/articles/",
				"health":   "/health",
			},
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		itemCount, err := itemService.CountItems()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		articleCount, err := articleService.CountArticles()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status":         "healthy",
			"database":       "connected",
			"items_count":    itemCount,
			"articles_count": articleCount,
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
		})
	})

	itemHandler.RegisterRoutes(app)
	userHandler.RegisterRoutes(app)
	articleHandler.RegisterRoutes(app)

	app.Get("/stats/items", itemHandler.HandleItemStats)
	app.Get("/stats/articles", articleHandler.HandleArticleStats)

	// --- Catalog Events Consumer ---
	// Audit tail: log every published catalog change event.
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for catalog events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received catalog event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}

	log.Println("Server gracefully stopped")
}

// openDatabase opens the configured GORM connection. TranslateError maps
// driver unique-constraint violations to gorm.ErrDuplicatedKey, which the
// repositories surface as conflicts.
func openDatabase(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	default:
		return gorm.Open(sqlite.Open(dsn), cfg)
	}
}
