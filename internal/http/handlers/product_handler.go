package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"roomfit/internal/ar"
	"roomfit/internal/domain"
	"roomfit/internal/gateway"
	"roomfit/internal/log"
	"roomfit/internal/services"
	"roomfit/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Stock   gateway.Inventory
	AR      *ar.Engine
}

func views(ps []domain.Product) []domain.ProductView {
	out := make([]domain.ProductView, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.View())
	}
	return out
}

func (h *ProductHandler) filter(c *fiber.Ctx) (q, category string, ok bool) {
	if raw := c.Query("q"); strings.TrimSpace(raw) != "" {
		if q, ok = validate.Q(raw); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q", "value": raw})
			return "", "", false
		}
	}
	category = strings.TrimSpace(c.Query("category"))
	if _, ok := validate.Name(category); category != "" && !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "category"})
		return "", "", false
	}
	return q, category, true
}

// GET /api/v1/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	q, category, ok := h.filter(c)
	if !ok {
		return deny(c, fiber.StatusBadRequest, "Enter a valid keyword (letters/numbers only)")
	}
	ps, err := h.Catalog.List(c.UserContext(), q, category)
	if err != nil {
		return fail(c, "products.list.fail", err)
	}
	return c.JSON(fiber.Map{"products": views(ps), "count": len(ps)})
}

// GET /api/v1/products/:id carries the AR launch data with the product.
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return deny(c, fiber.StatusNotFound, "This item is no longer available")
	}
	p, err := h.Catalog.Get(c.UserContext(), id)
	if err != nil {
		if statusFor(err) == fiber.StatusNotFound {
			return deny(c, fiber.StatusNotFound, "This item is no longer available")
		}
		return fail(c, "products.detail.fail", err)
	}
	return c.JSON(fiber.Map{"product": p.View(), "ar": h.AR.Info(c.UserContext(), p)})
}

// GET /api/v1/products/:id/availability
func (h *ProductHandler) Availability(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing product id"})
	}
	n, err := h.Stock.Stock(c.UserContext(), id)
	if err != nil {
		return fail(c, "products.availability.fail", err)
	}
	return c.JSON(fiber.Map{"product_id": id, "stock": n, "in_stock": n > 0})
}

// GET /
func (h *ProductHandler) Home(c *fiber.Ctx) error {
	q, category, ok := h.filter(c)
	if !ok {
		c.Status(fiber.StatusBadRequest)
		return render(c, "home", fiber.Map{"Products": []domain.ProductView{}, "Err": "Enter a valid keyword (letters/numbers only)"})
	}
	ps, err := h.Catalog.List(c.UserContext(), q, category)
	if err != nil {
		log.Error(c, "home.products.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load products. Please retry."})
	}
	return render(c, "home", fiber.Map{"Q": q, "Category": category, "Products": views(ps)})
}
