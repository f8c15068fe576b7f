package handler

import (
	"go-trading-post/internal/model"
	"go-trading-post/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PartyHandler serves one party kind; main mounts one for hunters and one for merchants.
type PartyHandler struct {
	service service.PartyService
	kind    model.PartyKind
}

func NewPartyHandler(s service.PartyService, kind model.PartyKind) *PartyHandler {
	return &PartyHandler{service: s, kind: kind}
}

func (h *PartyHandler) Create(c *fiber.Ctx) error {
	var req service.PartyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	party, err := h.service.Create(c.UserContext(), h.kind, &req, getUserName(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": string(h.kind) + " created", "data": party})
}

// List query params: name
func (h *PartyHandler) List(c *fiber.Ctx) error {
	parties, err := h.service.List(c.UserContext(), h.kind, c.Query("name"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(parties)
}

func (h *PartyHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid ID")
	}

	party, err := h.service.Get(c.UserContext(), h.kind, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(party)
}

func (h *PartyHandler) Update(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid ID")
	}

	var req service.PartyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	party, err := h.service.Update(c.UserContext(), h.kind, id, &req, getUserName(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": string(h.kind) + " updated", "data": party})
}

func (h *PartyHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid ID")
	}

	if err := h.service.Delete(c.UserContext(), h.kind, id, getUserName(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": string(h.kind) + " deleted"})
}

// GetByName, UpdateByName and DeleteByName address a party by its exact name.
func (h *PartyHandler) GetByName(c *fiber.Ctx) error {
	party, err := h.service.GetByName(c.UserContext(), h.kind, nameParam(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(party)
}

func (h *PartyHandler) UpdateByName(c *fiber.Ctx) error {
	party, err := h.service.GetByName(c.UserContext(), h.kind, nameParam(c))
	if err != nil {
		return respondError(c, err)
	}

	var req service.PartyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	updated, err := h.service.Update(c.UserContext(), h.kind, party.ID, &req, getUserName(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": string(h.kind) + " updated", "data": updated})
}

func (h *PartyHandler) DeleteByName(c *fiber.Ctx) error {
	party, err := h.service.GetByName(c.UserContext(), h.kind, nameParam(c))
	if err != nil {
		return respondError(c, err)
	}

	if err := h.service.Delete(c.UserContext(), h.kind, party.ID, getUserName(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": string(h.kind) + " deleted"})
}
