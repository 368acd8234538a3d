package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"roomfit/internal/cart"
	"roomfit/internal/domain"
	applog "roomfit/internal/log"
	"roomfit/internal/services"
	"roomfit/internal/validate"
)

type CartHandler struct {
	Cart    *cart.Store
	Catalog *services.CatalogService
}

type cartView struct {
	Items []domain.CartLine `json:"items"`
	Count int               `json:"count"`
	Total float64           `json:"total"`
}

func viewOf(lines []domain.CartLine) cartView {
	v := cartView{Items: lines}
	if v.Items == nil {
		v.Items = []domain.CartLine{}
	}
	for _, l := range lines {
		v.Count += l.Quantity
		v.Total += l.Subtotal()
	}
	return v
}

type cartInput struct {
	ProductID string `json:"product_id" form:"product_id"`
	Quantity  int    `json:"quantity" form:"quantity"`
}

func itemID(c *fiber.Ctx) (string, bool) { return validate.ID(c.Params("id")) }

// GET /api/v1/cart
func (h *CartHandler) Get(c *fiber.Ctx) error {
	lines, err := h.Cart.Lines(c.UserContext(), userID(c))
	if err != nil {
		return fail(c, "cart.load.fail", err)
	}
	return c.JSON(viewOf(lines))
}

// POST /api/v1/cart
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in cartInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	id, ok := validate.ID(in.ProductID)
	if !ok {
		return badRequest(c, "product_id", "missing product_id")
	}
	p, err := h.Catalog.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, "cart.add.fail", err)
	}
	qty := validate.Qty(strconv.Itoa(in.Quantity))
	if err := h.Cart.AddItem(c.UserContext(), userID(c), p, qty); err != nil {
		return fail(c, "cart.add.fail", err)
	}
	c.Status(fiber.StatusCreated)
	applog.Info(c, "cart.add", map[string]any{"product_id": id, "qty": qty})
	return c.JSON(viewOf(h.Cart.Cached(userID(c))))
}

// PATCH /api/v1/cart/:id
func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, ok := itemID(c)
	if !ok {
		return badRequest(c, "id", "invalid cart item")
	}
	var in cartInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	lines, err := h.Cart.UpdateQuantity(c.UserContext(), userID(c), id, in.Quantity)
	if err != nil {
		return fail(c, "cart.update.fail", err)
	}
	return c.JSON(viewOf(lines))
}

// POST /api/v1/cart/:id/increment
func (h *CartHandler) Increment(c *fiber.Ctx) error {
	id, ok := itemID(c)
	if !ok {
		return badRequest(c, "id", "invalid cart item")
	}
	lines, err := h.Cart.Increment(c.UserContext(), userID(c), id)
	if err != nil {
		return fail(c, "cart.increment.fail", err)
	}
	return c.JSON(viewOf(lines))
}

// POST /api/v1/cart/:id/decrement
func (h *CartHandler) Decrement(c *fiber.Ctx) error {
	id, ok := itemID(c)
	if !ok {
		return badRequest(c, "id", "invalid cart item")
	}
	lines, err := h.Cart.Decrement(c.UserContext(), userID(c), id)
	if err != nil {
		return fail(c, "cart.decrement.fail", err)
	}
	return c.JSON(viewOf(lines))
}

// DELETE /api/v1/cart/:id
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, ok := itemID(c)
	if !ok {
		return badRequest(c, "id", "invalid cart item")
	}
	lines, err := h.Cart.Remove(c.UserContext(), userID(c), id)
	if err != nil {
		return fail(c, "cart.remove.fail", err)
	}
	applog.Info(c, "cart.remove", map[string]any{"item_id": id})
	return c.JSON(viewOf(lines))
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	lines, err := h.Cart.Lines(c.UserContext(), userID(c))
	if err != nil {
		applog.Error(c, "cart.view.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	return render(c, "cart", fiber.Map{"Cart": viewOf(lines)})
}
