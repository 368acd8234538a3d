package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "roomfit/internal/log"
	"roomfit/internal/services"
)

type OrderHandler struct {
	Orders *services.OrderService
}

// POST /api/v1/cart/checkout
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	o, items, err := h.Orders.Checkout(c.UserContext(), userID(c))
	if err != nil {
		if o.ID == "" {
			return fail(c, "order.checkout.fail", err)
		}
		// The order exists; only clearing the cart failed.
		applog.Error(c, "order.checkout.clear", err, map[string]any{"order_id": o.ID})
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "order.placed", map[string]any{"order_id": o.ID, "total": o.TotalAmount, "items": len(items)})
	return c.JSON(fiber.Map{"order": o, "items": items})
}

// GET /api/v1/orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Orders.History(c.UserContext(), userID(c))
	if err != nil {
		return fail(c, "order.history.fail", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}
