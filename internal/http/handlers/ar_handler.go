package handlers

import (
	"github.com/gofiber/fiber/v2"

	"roomfit/internal/ar"
	applog "roomfit/internal/log"
	"roomfit/internal/services"
	"roomfit/internal/validate"
)

type ARHandler struct {
	Engine  *ar.Engine
	Catalog *services.CatalogService
}

type launchInput struct {
	ProductID string `json:"product_id"`
	Platform  string `json:"platform"`
	ar.Capabilities
}

func (h *ARHandler) session(c *fiber.Ctx) (ar.Placer, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return nil, ar.ErrUnknownSession
	}
	s, ok := h.Engine.Session(id)
	if !ok {
		return nil, ar.ErrUnknownSession
	}
	return s, nil
}

func (h *ARHandler) native(c *fiber.Ctx) (*ar.NativeSession, error) {
	s, err := h.session(c)
	if err != nil {
		return nil, err
	}
	n, ok := s.(*ar.NativeSession)
	if !ok {
		return nil, errNativeOnly
	}
	return n, nil
}

// POST /api/v1/ar/sessions
func (h *ARHandler) Launch(c *fiber.Ctx) error {
	var in launchInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	platform, err := ar.ParsePlatform(in.Platform)
	if err != nil {
		return badRequest(c, "platform", err.Error())
	}
	id, ok := validate.ID(in.ProductID)
	if !ok {
		return badRequest(c, "product_id", "missing product_id")
	}
	p, err := h.Catalog.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, "ar.launch.fail", err)
	}
	s, err := h.Engine.Launch(c.UserContext(), platform, p, in.Capabilities)
	if err != nil {
		return fail(c, "ar.launch.fail", err)
	}
	c.Status(fiber.StatusCreated)
	applog.Info(c, "ar.launch", map[string]any{"session": s.ID(), "platform": platform, "product_id": p.ID})
	return c.JSON(s.State())
}

// GET /api/v1/ar/sessions/:id
func (h *ARHandler) State(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, "ar.state.fail", err)
	}
	return c.JSON(s.State())
}

// DELETE /api/v1/ar/sessions/:id
func (h *ARHandler) End(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, "ar.end.fail", err)
	}
	if err := h.Engine.End(s.ID()); err != nil {
		return fail(c, "ar.end.fail", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /api/v1/ar/sessions/:id/tracking
func (h *ARHandler) Tracking(c *fiber.Ctx) error {
	n, err := h.native(c)
	if err != nil {
		return fail(c, "ar.tracking.fail", err)
	}
	var in struct {
		State string `json:"state"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	if err := n.UpdateTracking(ar.ParseTracking(in.State)); err != nil {
		return fail(c, "ar.tracking.fail", err)
	}
	return c.JSON(n.State())
}

// POST /api/v1/ar/sessions/:id/plane places the object on the first
// selected plane. Later selections answer placed=false.
func (h *ARHandler) Plane(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, "ar.plane.fail", err)
	}
	var in struct {
		Position ar.Vec3 `json:"position"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	placed, err := s.PlaceObject(in.Position)
	if err != nil {
		return fail(c, "ar.plane.fail", err)
	}
	return c.JSON(fiber.Map{"placed": placed, "state": s.State()})
}

func (h *ARHandler) mutate(c *fiber.Ctx, action string, m ar.Mutation) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, action, err)
	}
	pose, err := s.MutatePose(m)
	if err != nil {
		return fail(c, action, err)
	}
	return c.JSON(fiber.Map{"pose": pose})
}

// POST /api/v1/ar/sessions/:id/rotate
func (h *ARHandler) Rotate(c *fiber.Ctx) error {
	var in ar.Rotate
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	return h.mutate(c, "ar.rotate.fail", in)
}

// POST /api/v1/ar/sessions/:id/scale takes either {"value": v} or {"dir": +1|-1}.
func (h *ARHandler) Scale(c *fiber.Ctx) error {
	var in struct {
		Value *float64 `json:"value"`
		Dir   int      `json:"dir"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	if in.Value != nil {
		return h.mutate(c, "ar.scale.fail", ar.SetScale{Value: *in.Value})
	}
	if in.Dir == 0 {
		return badRequest(c, "dir", "send a scale value or a step direction")
	}
	return h.mutate(c, "ar.scale.fail", ar.StepScale{Dir: in.Dir})
}

// POST /api/v1/ar/sessions/:id/drag
func (h *ARHandler) Drag(c *fiber.Ctx) error {
	var in ar.Drag
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	return h.mutate(c, "ar.drag.fail", in)
}

// POST /api/v1/ar/sessions/:id/load reports the model load outcome.
func (h *ARHandler) Load(c *fiber.Ctx) error {
	n, err := h.native(c)
	if err != nil {
		return fail(c, "ar.load.fail", err)
	}
	var in struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	if in.Success {
		n.ModelLoaded()
	} else {
		n.ModelFailed(in.Message)
	}
	return c.JSON(n.State())
}

// GET /ar/web/:id serves the model-viewer page for a web session.
func (h *ARHandler) WebPage(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": ar.ErrUnknownSession.Error()})
	}
	w, ok := s.(*ar.WebSession)
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Open this product in the app to view it in AR"})
	}
	page, err := w.Page()
	if err != nil {
		return c.Status(statusFor(err)).Render("notfound", fiber.Map{"Message": err.Error()})
	}
	return render(c, "ar_web", fiber.Map{"Page": page})
}
