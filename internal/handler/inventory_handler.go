package handler

import (
	"go-trading-post/internal/model"
	"go-trading-post/internal/repository"
	"go-trading-post/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

func (h *InventoryHandler) CreateGood(c *fiber.Ctx) error {
	var req service.GoodRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	good, err := h.service.CreateGood(c.UserContext(), &req, getUserName(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Good created", "data": good})
}

func (h *InventoryHandler) UpdateGood(c *fiber.Ctx) error {
	goodID, err := parseUUID(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid good ID")
	}

	var req service.GoodRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	updated, err := h.service.UpdateGood(c.UserContext(), goodID, &req, getUserName(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Good updated", "data": updated})
}

func (h *InventoryHandler) DeleteGood(c *fiber.Ctx) error {
	goodID, err := parseUUID(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid good ID")
	}

	if err := h.service.DeleteGood(c.UserContext(), goodID, getUserName(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Good deleted"})
}

// GetGoods query params: name, category, material, description
func (h *InventoryHandler) GetGoods(c *fiber.Ctx) error {
	goods, err := h.service.GetGoods(c.UserContext(), repository.GoodFilter{
		Name:        c.Query("name"),
		Category:    model.Category(c.Query("category")),
		Material:    c.Query("material"),
		Description: c.Query("description"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(goods)
}

func (h *InventoryHandler) GetGood(c *fiber.Ctx) error {
	goodID, err := parseUUID(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid good ID")
	}

	good, err := h.service.GetGood(c.UserContext(), goodID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(good)
}

func (h *InventoryHandler) GetGoodByName(c *fiber.Ctx) error {
	good, err := h.service.GetGoodByName(c.UserContext(), nameParam(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(good)
}

func (h *InventoryHandler) UpdateGoodByName(c *fiber.Ctx) error {
	good, err := h.service.GetGoodByName(c.UserContext(), nameParam(c))
	if err != nil {
		return respondError(c, err)
	}

	var req service.GoodRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	updated, err := h.service.UpdateGood(c.UserContext(), good.ID, &req, getUserName(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Good updated", "data": updated})
}

func (h *InventoryHandler) DeleteGoodByName(c *fiber.Ctx) error {
	good, err := h.service.GetGoodByName(c.UserContext(), nameParam(c))
	if err != nil {
		return respondError(c, err)
	}

	if err := h.service.DeleteGood(c.UserContext(), good.ID, getUserName(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Good deleted"})
}
