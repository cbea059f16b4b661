package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"slideflow/internal/models"
	"slideflow/internal/service"
	"slideflow/internal/transfer"
)

type ProjectHandler struct {
	s  service.ProjectService
	tt service.TiktokService
	ig service.InstagramService
}

func NewProjectHandler(s service.ProjectService, tt service.TiktokService, ig service.InstagramService) *ProjectHandler {
	return &ProjectHandler{s: s, tt: tt, ig: ig}
}

func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.s.List(c.Context())
	if err != nil {
		return errorJSON(c, err)
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	return c.Status(fiber.StatusOK).JSON(projects)
}

func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req transfer.ProjectCreation
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	p, err := h.s.Create(c.Context(), &req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	p, err := h.s.Get(c.Context(), c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(p)
}

func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	var req transfer.ProjectCreation
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	p, err := h.s.Update(c.Context(), c.Params("id"), &req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(p)
}

func (h *ProjectHandler) Remove(c *fiber.Ctx) error {
	if err := h.s.Remove(c.Context(), c.Params("id")); err != nil {
		return errorJSON(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *ProjectHandler) PostToTiktok(c *fiber.Ctx) error {
	p, err := h.s.Get(c.Context(), c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	if len(p.SlidePaths) < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": service.ErrNotEnoughImages.Error(),
		})
	}

	if err := h.tt.PostSlideshow(c.Context(), p.Topic, p.SlidePaths); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Posted to TikTok",
	})
}

func (h *ProjectHandler) PostToInstagram(c *fiber.Ctx) error {
	p, err := h.s.Get(c.Context(), c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	if len(p.SlidePaths) < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": service.ErrNotEnoughImages.Error(),
		})
	}

	if err := h.ig.PostCarousel(c.Context(), p.Topic, p.SlidePaths); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Posted to Instagram",
	})
}
