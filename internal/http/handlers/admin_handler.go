package handlers

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"roomfit/internal/domain"
	applog "roomfit/internal/log"
	"roomfit/internal/services"
	"roomfit/internal/storage"
	"roomfit/internal/validate"
)

// ModelUploader stores 3D model files in the asset bucket.
type ModelUploader interface {
	UploadModel(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

type AdminHandler struct {
	Catalog *services.CatalogService
	Models  ModelUploader // nil without an asset bucket
}

// GET /api/v1/admin/products
func (h *AdminHandler) Products(c *fiber.Ctx) error {
	ps, err := h.Catalog.List(c.UserContext(), "", "")
	if err != nil {
		return fail(c, "admin.products.list.fail", err)
	}
	return c.JSON(fiber.Map{"products": views(ps), "count": len(ps)})
}

// POST /api/v1/admin/products
func (h *AdminHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	p, err := h.Catalog.Create(c.UserContext(), userID(c), in)
	if err != nil {
		return fail(c, "admin.products.create.fail", err)
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "admin.products.create", map[string]any{"product_id": p.ID})
	return c.JSON(fiber.Map{"product": p.View()})
}

// PUT /api/v1/admin/products/:id
func (h *AdminHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid product id")
	}
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	p, err := h.Catalog.Update(c.UserContext(), userID(c), id, in)
	if err != nil {
		return fail(c, "admin.products.update.fail", err)
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product_id": id})
	return c.JSON(fiber.Map{"product": p.View()})
}

// DELETE /api/v1/admin/products/:id
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid product id")
	}
	if err := h.Catalog.Delete(c.UserContext(), userID(c), id); err != nil {
		return fail(c, "admin.products.delete.fail", err)
	}
	c.Status(fiber.StatusNoContent)
	applog.Audit(c, "admin.products.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /api/v1/admin/products/:id/model takes a multipart "model" file,
// stores it in the bucket and points the product at the new key.
func (h *AdminHandler) UploadModel(c *fiber.Ctx) error {
	if h.Models == nil {
		return fail(c, "admin.products.model.fail", storage.ErrNoBucket)
	}
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id", "invalid product id")
	}
	fh, err := c.FormFile("model")
	if err != nil {
		return badRequest(c, "model", "attach a .glb or .gltf file as \"model\"")
	}
	ext := strings.ToLower(path.Ext(fh.Filename))
	if ext != ".glb" && ext != ".gltf" {
		return badRequest(c, "model", "attach a .glb or .gltf file as \"model\"")
	}
	p, err := h.Catalog.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.products.model.fail", err)
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, "admin.products.model.fail", err)
	}
	defer f.Close()

	ct := "model/gltf-binary"
	if ext == ".gltf" {
		ct = "model/gltf+json"
	}
	key, err := h.Models.UploadModel(c.UserContext(), "models/"+p.ID+ext, f, ct)
	if err != nil {
		return fail(c, "admin.products.model.fail", err)
	}
	in := inputFrom(p)
	in.ModelURL = key
	if p, err = h.Catalog.Update(c.UserContext(), userID(c), id, in); err != nil {
		return fail(c, "admin.products.model.fail", err)
	}
	applog.Audit(c, "admin.products.model", map[string]any{"product_id": id, "key": key})
	return c.JSON(fiber.Map{"product": p.View()})
}

func inputFrom(p domain.Product) services.ProductInput {
	return services.ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Material:    p.Material.String,
		Color:       p.Color.String,
		Dimensions:  p.Dimensions(),
		ImageURL:    p.ImageURL,
		ModelURL:    p.ModelURL,
		Stock:       p.Stock,
	}
}
