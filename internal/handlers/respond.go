package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"
)

// statusForError maps the service/repository error taxonomy to HTTP status
// codes: not-found 404, conflict 409, empty patch and malformed upload 400,
// anything else 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, repositories.ErrDuplicate):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrNoFieldsToUpdate),
		errors.Is(err, services.ErrMalformedDocument):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error, message string) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
	})
}

// parsePagination reads and bounds the skip/limit query parameters.
// limit defaults to 10 and must stay within 1..maxLimit; skip must be >= 0.
func parsePagination(c *fiber.Ctx, maxLimit int) (skip, limit int, err error) {
	skip, err = queryInt(c, "skip", 0)
	if err != nil || skip < 0 {
		return 0, 0, errors.New("skip must be a non-negative integer")
	}
	limit, err = queryInt(c, "limit", 10)
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, 0, errors.New("limit must be an integer between 1 and " + strconv.Itoa(maxLimit))
	}
	return skip, limit, nil
}

func errInvalidParam(key string) error {
	return errors.New("invalid value for " + key)
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// queryOptionalBool parses an optional boolean query parameter, returning
// nil when absent.
func queryOptionalBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.New(key + " must be true or false")
	}
	return &v, nil
}

// queryOptionalFloat parses an optional non-negative float query parameter,
// returning nil when absent.
func queryOptionalFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, errors.New(key + " must be a non-negative number")
	}
	return &v, nil
}
