package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"roomfit/internal/analyzer"
	"roomfit/internal/ar"
	"roomfit/internal/cart"
	"roomfit/internal/gateway"
	applog "roomfit/internal/log"
	"roomfit/internal/registry"
	"roomfit/internal/services"
	"roomfit/internal/storage"
)

const msgGeneric = "Something went wrong. Please try again."

var errNativeOnly = errors.New("this action is only available in the native AR view")

func statusFor(err error) int {
	var perm *analyzer.PermissionError
	switch {
	case errors.As(err, &perm), errors.Is(err, services.ErrNotAdmin):
		return fiber.StatusForbidden
	case errors.Is(err, gateway.ErrNotConfigured), errors.Is(err, analyzer.ErrNotConfigured),
		errors.Is(err, storage.ErrNoBucket), errors.Is(err, registry.ErrFull):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, gateway.ErrNotFound), errors.Is(err, ar.ErrUnknownSession):
		return fiber.StatusNotFound
	case errors.Is(err, cart.ErrUnauthenticated), errors.Is(err, services.ErrBadCreds),
		errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrBadEmail), errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, services.ErrInvalidProduct), errors.Is(err, services.ErrCartEmpty),
		errors.Is(err, services.ErrResetLinkUsed), errors.Is(err, analyzer.ErrProcessImage),
		errors.Is(err, analyzer.ErrNoImage), errors.Is(err, ar.ErrNotPlaced):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrEmailTaken), errors.Is(err, gateway.ErrOutOfStock),
		errors.Is(err, cart.ErrSoldOut), errors.Is(err, cart.ErrStockLimit),
		errors.Is(err, analyzer.ErrBusy), errors.Is(err, analyzer.ErrDiscarded),
		errors.Is(err, analyzer.ErrSessionClosed), errors.Is(err, ar.ErrSessionClosed),
		errors.Is(err, ar.ErrSceneUnavailable), errors.Is(err, ar.ErrPoseDelegated),
		errors.Is(err, errNativeOnly):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// fail logs err and answers with a message safe to show. Unknown errors
// never leak their text.
func fail(c *fiber.Ctx, action string, err error) error {
	code := statusFor(err)
	msg := err.Error()
	switch {
	case code == fiber.StatusInternalServerError:
		applog.Error(c, action, err, nil)
		msg = msgGeneric
	case code == fiber.StatusForbidden || code == fiber.StatusUnauthorized:
		applog.Security(c, action, map[string]any{"reason": msg})
	default:
		applog.Info(c, action, map[string]any{"reason": msg})
	}
	return deny(c, code, msg)
}

func badRequest(c *fiber.Ctx, field, msg string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return deny(c, fiber.StatusBadRequest, msg)
}

// ErrorHandler is the app-wide fallback: log the cause, show a friendly message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	applog.Error(c, "server.error", err, nil)
	code := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok && fe.Code < 500 {
		code = fe.Code
	}
	if isAPI(c) {
		return c.Status(code).JSON(fiber.Map{"error": msgGeneric})
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msgGeneric}); rerr != nil {
		return c.Status(code).SendString(msgGeneric)
	}
	return nil
}
