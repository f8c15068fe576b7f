package handler

import (
	"time"

	"go-trading-post/internal/model"
	"go-trading-post/internal/repository"
	"go-trading-post/internal/service"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

type TransactionHandler struct {
	service service.TransactionService
}

func NewTransactionHandler(s service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	var req service.TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	req.IdempotencyKey = c.Get("Idempotency-Key")

	txn, err := h.service.CreateTransaction(c.UserContext(), &req, getUserName(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transaction recorded", "data": txn})
}

func (h *TransactionHandler) UpdateTransaction(c *fiber.Ctx) error {
	txID, err := parseUUID(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid transaction ID")
	}

	var req service.UpdateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	txn, err := h.service.UpdateTransaction(c.UserContext(), txID, &req, getUserName(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Transaction updated", "data": txn})
}

func (h *TransactionHandler) DeleteTransaction(c *fiber.Ctx) error {
	txID, err := parseUUID(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid transaction ID")
	}

	confirmation, err := h.service.DeleteTransaction(c.UserContext(), txID, getUserName(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Transaction deleted and stock restored", "data": confirmation})
}

func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	txID, err := parseUUID(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid transaction ID")
	}

	txn, err := h.service.GetTransaction(c.UserContext(), txID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(txn)
}

// GetTransactions lists transactions, newest first.
// Query params: person, start, end (YYYY-MM-DD or RFC3339), type (purchase, sale, all)
func (h *TransactionHandler) GetTransactions(c *fiber.Ctx) error {
	filter := repository.TransactionFilter{
		PersonName: c.Query("person"),
		Type:       model.TransactionType(c.Query("type")),
	}

	if raw := c.Query("start"); raw != "" {
		start, _, err := parseDate(raw)
		if err != nil {
			return badRequest(c, "Invalid start date")
		}
		filter.Start = &start
	}
	if raw := c.Query("end"); raw != "" {
		end, dateOnly, err := parseDate(raw)
		if err != nil {
			return badRequest(c, "Invalid end date")
		}
		if dateOnly {
			// a bare date includes the whole day
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		filter.End = &end
	}

	transactions, err := h.service.QueryTransactions(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transactions)
}

// parseDate accepts RFC3339 timestamps or bare dates, reporting which it got.
func parseDate(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse(dateLayout, raw)
	return t, true, err
}
