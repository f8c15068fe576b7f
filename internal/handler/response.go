package handler

import (
	"errors"
	"net/url"

	"go-trading-post/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// statusFor maps a service error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case service.CodeInvalidRequest:
		return fiber.StatusBadRequest
	case service.CodePartyNotFound, service.CodeGoodNotFound, service.CodeTransactionNotFound:
		return fiber.StatusNotFound
	case service.CodeInsufficientStock, service.CodeDuplicateRequest, service.CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error) error {
	code := service.ErrorCode(err)
	body := fiber.Map{"error": err.Error(), "code": code}

	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		body["good_name"] = stockErr.GoodName
		body["available"] = stockErr.Available
		body["requested"] = stockErr.Requested
	}
	var dupErr *service.DuplicateRequestError
	if errors.As(err, &dupErr) && dupErr.TransactionID != "" {
		body["transaction_id"] = dupErr.TransactionID
	}
	if code == service.CodeStorageFailure {
		// Store details stay in the logs.
		body["error"] = "Internal Server Error"
	}

	return c.Status(statusFor(code)).JSON(body)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message, "code": service.CodeInvalidRequest})
}

// Helper to read the caller from the JWT context (set by auth middleware)
func getUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return "system"
	}
	return userID
}

func getUserName(c *fiber.Ctx) string {
	userName, ok := c.Locals("user_name").(string)
	if !ok || userName == "" {
		return getUserID(c)
	}
	return userName
}

func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// nameParam returns the decoded :name route parameter.
func nameParam(c *fiber.Ctx) string {
	raw := c.Params("name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
