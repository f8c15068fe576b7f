package handler

import (
	"strconv"
	"time"

	"go-trading-post/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7)
func (h *ReportHandler) GetStockMovement(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil || days <= 0 {
		days = 7
	}

	data, err := h.service.GetStockMovement(c.UserContext(), days)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetDashboardStats returns overview statistics
func (h *ReportHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// GetFinancialSummary returns income and expense totals.
// Query params: range (7d, 1m, 3m, 6m, 12m) or start/end dates
func (h *ReportHandler) GetFinancialSummary(c *fiber.Ctx) error {
	now := time.Now().UTC()
	endDate := now
	var startDate time.Time

	switch c.Query("range", "7d") {
	case "1m":
		startDate = now.AddDate(0, -1, 0)
	case "3m":
		startDate = now.AddDate(0, -3, 0)
	case "6m":
		startDate = now.AddDate(0, -6, 0)
	case "12m":
		startDate = now.AddDate(0, -12, 0)
	default:
		startDate = now.AddDate(0, 0, -7)
	}

	if raw := c.Query("start"); raw != "" {
		start, _, err := parseDate(raw)
		if err != nil {
			return badRequest(c, "Invalid start date")
		}
		startDate = start
	}
	if raw := c.Query("end"); raw != "" {
		end, dateOnly, err := parseDate(raw)
		if err != nil {
			return badRequest(c, "Invalid end date")
		}
		if dateOnly {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		endDate = end
	}

	summary, err := h.service.GetFinancialSummary(c.UserContext(), startDate, endDate)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"start":   startDate,
		"end":     endDate,
		"summary": summary,
	})
}

// GetTopGoods returns the best-selling goods.
// Query params: limit (default 10)
func (h *ReportHandler) GetTopGoods(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	top, err := h.service.GetTopGoods(c.UserContext(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(top)
}
