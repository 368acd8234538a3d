package handlers

import (
	"github.com/gofiber/fiber/v2"

	"roomfit/internal/analyzer"
	applog "roomfit/internal/log"
	"roomfit/internal/registry"
	"roomfit/internal/services"
	"roomfit/internal/validate"
)

type AnalyzerHandler struct {
	Analyzer *analyzer.Analyzer
	Catalog  *services.CatalogService
	Sessions *registry.Registry[*analyzer.Session]
}

// imageInput covers both multipart uploads and JSON bodies carrying base64
// (plain or data: URL) in "image".
type imageInput struct {
	ProductID string `json:"product_id" form:"product_id"`
	Source    string `json:"source" form:"source"`
	RoomType  string `json:"room_type" form:"room_type"`
	Image     string `json:"image" form:"image"`
}

func readImage(c *fiber.Ctx, in imageInput) (analyzer.Image, error) {
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return analyzer.Image{}, analyzer.ErrProcessImage
		}
		defer f.Close()
		return analyzer.ReadImage(f)
	}
	if in.Image == "" {
		return analyzer.Image{}, analyzer.ErrProcessImage
	}
	return analyzer.DecodeBase64(in.Image)
}

func (h *AnalyzerHandler) details(c *fiber.Ctx, productID string) (analyzer.ProductDetails, error) {
	id, ok := validate.ID(productID)
	if !ok {
		return analyzer.ProductDetails{}, fiber.NewError(fiber.StatusBadRequest, "missing product_id")
	}
	p, err := h.Catalog.Get(c.UserContext(), id)
	if err != nil {
		return analyzer.ProductDetails{}, err
	}
	return analyzer.DetailsFrom(p), nil
}

func (h *AnalyzerHandler) session(c *fiber.Ctx) (*analyzer.Session, bool) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return nil, false
	}
	return h.Sessions.Get(id)
}

func missingSession(c *fiber.Ctx) error {
	return deny(c, fiber.StatusNotFound, "analysis session not found")
}

// POST /api/v1/analysis/sessions
func (h *AnalyzerHandler) Open(c *fiber.Ctx) error {
	var in struct {
		ProductID string `json:"product_id"`
		analyzer.Permissions
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	p, err := h.details(c, in.ProductID)
	if err != nil {
		return h.failInput(c, "analysis.open.fail", err)
	}
	_, s, err := h.Sessions.Add(func(id string) *analyzer.Session {
		return h.Analyzer.NewSession(id, p, in.Permissions)
	})
	if err != nil {
		return fail(c, "analysis.open.fail", err)
	}
	c.Status(fiber.StatusCreated)
	applog.Info(c, "analysis.open", map[string]any{"session": s.ID(), "product": p.Name})
	return c.JSON(s.Snapshot())
}

// GET /api/v1/analysis/sessions/:id
func (h *AnalyzerHandler) State(c *fiber.Ctx) error {
	s, ok := h.session(c)
	if !ok {
		return missingSession(c)
	}
	return c.JSON(s.Snapshot())
}

// POST /api/v1/analysis/sessions/:id/image
func (h *AnalyzerHandler) SetImage(c *fiber.Ctx) error {
	s, ok := h.session(c)
	if !ok {
		return missingSession(c)
	}
	var in imageInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	src := analyzer.Source(in.Source)
	if src == "" {
		src = analyzer.SourceGallery
	}
	img, err := readImage(c, in)
	if err != nil {
		return fail(c, "analysis.image.fail", err)
	}
	if err := s.SetImage(src, img); err != nil {
		return fail(c, "analysis.image.fail", err)
	}
	return c.JSON(s.Snapshot())
}

// POST /api/v1/analysis/sessions/:id/analyze
func (h *AnalyzerHandler) Analyze(c *fiber.Ctx) error {
	s, ok := h.session(c)
	if !ok {
		return missingSession(c)
	}
	res, err := s.Analyze(c.UserContext())
	if err != nil {
		return fail(c, "analysis.run.fail", err)
	}
	applog.Info(c, "analysis.complete", map[string]any{"session": s.ID(), "score": res.SuitabilityScore})
	return c.JSON(fiber.Map{"result": res, "color_level": res.ColorLevel(), "style_level": res.StyleLevel()})
}

// DELETE /api/v1/analysis/sessions/:id/image
func (h *AnalyzerHandler) Discard(c *fiber.Ctx) error {
	s, ok := h.session(c)
	if !ok {
		return missingSession(c)
	}
	s.Discard()
	return c.JSON(s.Snapshot())
}

// DELETE /api/v1/analysis/sessions/:id
func (h *AnalyzerHandler) Close(c *fiber.Ctx) error {
	id, _ := validate.ID(c.Params("id"))
	s, ok := h.Sessions.Remove(id)
	if !ok {
		return missingSession(c)
	}
	s.Close()
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /api/v1/analyze runs one analysis without a session.
func (h *AnalyzerHandler) AnalyzeOnce(c *fiber.Ctx) error {
	var in imageInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	p, err := h.details(c, in.ProductID)
	if err != nil {
		return h.failInput(c, "analysis.once.fail", err)
	}
	img, err := readImage(c, in)
	if err != nil {
		return fail(c, "analysis.once.fail", err)
	}
	res := h.Analyzer.Analyze(c.UserContext(), img, p)
	return c.JSON(fiber.Map{"result": res, "color_level": res.ColorLevel(), "style_level": res.StyleLevel()})
}

// POST /api/v1/analyze/colors
func (h *AnalyzerHandler) Colors(c *fiber.Ctx) error {
	var in imageInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	img, err := readImage(c, in)
	if err != nil {
		return fail(c, "analysis.colors.fail", err)
	}
	return c.JSON(fiber.Map{"colors": h.Analyzer.Colors(c.UserContext(), img, in.RoomType)})
}

func (h *AnalyzerHandler) failInput(c *fiber.Ctx, action string, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return badRequest(c, "product_id", fe.Message)
	}
	return fail(c, action, err)
}
