package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"slideflow/internal/models"
	"slideflow/internal/service"
	"slideflow/pkg/utils"
)

type PlatformHandler struct {
	ps          service.PlatformService
	tt          service.TiktokService
	ig          service.InstagramService
	frontendURL string
}

func NewPlatformHandler(ps service.PlatformService, tt service.TiktokService, ig service.InstagramService, frontendURL string) *PlatformHandler {
	return &PlatformHandler{ps: ps, tt: tt, ig: ig, frontendURL: frontendURL}
}

// Auth redirects the browser to the platform's OAuth consent page. The
// state token is echoed back in the callback and checked against the
// cookie to block forged callbacks.
func (h *PlatformHandler) Auth(c *fiber.Ctx) error {
	platform := c.Params("platform")
	if platform != models.PlatformTiktok && platform != models.PlatformInstagram {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown platform",
		})
	}

	state, err := utils.GenerateStateToken(32)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate state token",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    state,
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   600,
	})

	return c.Redirect(h.ps.GetAuthURL(c.Context(), platform, state))
}

func (h *PlatformHandler) Callback(c *fiber.Ctx) error {
	platform := c.Params("platform")
	code := c.Query("code")
	state := c.Query("state")

	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing authorization code",
		})
	}
	if state == "" || state != c.Cookies("oauth_state") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid state token",
		})
	}

	var err error
	switch platform {
	case models.PlatformTiktok:
		err = h.tt.TiktokCallback(c.Context(), code)
	case models.PlatformInstagram:
		err = h.ig.InstagramCallback(c.Context(), code)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown platform",
		})
	}
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to connect account",
		})
	}

	c.Cookie(&fiber.Cookie{Name: "oauth_state", Value: "", MaxAge: -1})
	return c.Redirect(h.frontendURL + "/settings")
}

func (h *PlatformHandler) Status(c *fiber.Ctx) error {
	status, err := h.ps.Status(c.Context(), c.Params("platform"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(status)
}

func (h *PlatformHandler) Disconnect(c *fiber.Ctx) error {
	if err := h.ps.Disconnect(c.Context(), c.Params("platform")); err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Account disconnected",
	})
}
