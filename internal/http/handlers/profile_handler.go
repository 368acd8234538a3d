package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "roomfit/internal/log"
	"roomfit/internal/services"
)

type ProfileHandler struct {
	Profiles *services.ProfileService
}

func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	p, err := h.Profiles.Get(c.UserContext(), userID(c))
	if err != nil {
		return fail(c, "profile.load.fail", err)
	}
	return c.JSON(fiber.Map{"profile": p})
}

func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	p, err := h.Profiles.Update(c.UserContext(), userID(c), in)
	if err != nil {
		return fail(c, "profile.update.fail", err)
	}
	applog.Audit(c, "profile.update", nil)
	return c.JSON(fiber.Map{"profile": p})
}
