package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"slideflow/internal/models"
	"slideflow/internal/repository"
	"slideflow/internal/service"
	"slideflow/internal/transfer"
)

type AutomationHandler struct {
	s   service.AutomationService
	qm  service.QueueManager
	rr  repository.RunRepository
	pd  service.PostDispatcher
	gen service.Generator
}

func NewAutomationHandler(
	s service.AutomationService,
	qm service.QueueManager,
	rr repository.RunRepository,
	pd service.PostDispatcher,
	gen service.Generator) *AutomationHandler {
	return &AutomationHandler{s: s, qm: qm, rr: rr, pd: pd, gen: gen}
}

func (h *AutomationHandler) List(c *fiber.Ctx) error {
	automations, err := h.s.List(c.Context())
	if err != nil {
		return errorJSON(c, err)
	}
	if automations == nil {
		automations = []*models.Automation{}
	}
	return c.Status(fiber.StatusOK).JSON(automations)
}

func (h *AutomationHandler) Create(c *fiber.Ctx) error {
	var req transfer.AutomationCreation
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	a, err := h.s.Create(c.Context(), &req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *AutomationHandler) Get(c *fiber.Ctx) error {
	a, err := h.s.Get(c.Context(), c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(a)
}

func (h *AutomationHandler) Update(c *fiber.Ctx) error {
	var req transfer.AutomationUpdate
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	a, err := h.s.Update(c.Context(), c.Params("id"), &req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(a)
}

func (h *AutomationHandler) Remove(c *fiber.Ctx) error {
	if err := h.s.Remove(c.Context(), c.Params("id")); err != nil {
		return errorJSON(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *AutomationHandler) Start(c *fiber.Ctx) error {
	if err := h.s.Start(c.Context(), c.Params("id")); err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Automation started",
	})
}

func (h *AutomationHandler) Stop(c *fiber.Ctx) error {
	if err := h.s.Stop(c.Context(), c.Params("id")); err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Automation stopped",
	})
}

// Sample is a dry-run preview: it generates content for the current queue
// item (or a topic given in the body) without creating a Run, moving the
// cursor or touching the counters.
func (h *AutomationHandler) Sample(c *fiber.Ctx) error {
	a, err := h.s.Get(c.Context(), c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	var body struct {
		Topic string `json:"topic"`
	}
	_ = c.BodyParser(&body)

	topic := body.Topic
	if topic == "" {
		item, err := h.qm.Peek(c.Context(), a)
		if err != nil {
			return errorJSON(c, err)
		}
		if item == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Queue is exhausted; provide a topic to sample",
			})
		}
		topic = item.Title
	}

	result, err := h.gen.GenerateContent(c.Context(), service.GenerationSpec{
		Topic:       topic,
		ContentType: a.ContentType,
		ImageStyle:  a.ImageStyle,
	})
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(transfer.SamplePreview{
		Topic:       topic,
		Script:      result.Script,
		SlidesCount: len(result.Slides),
		ImagePaths:  result.ImagePaths,
	})
}

func (h *AutomationHandler) AddTopic(c *fiber.Ctx) error {
	a, err := h.s.Get(c.Context(), c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	var req transfer.TopicAddition
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.qm.AddTopic(c.Context(), a, req.Topic); err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(a)
}

func (h *AutomationHandler) RemoveTopic(c *fiber.Ctx) error {
	a, err := h.s.Get(c.Context(), c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid topic index",
		})
	}

	if err := h.qm.RemoveTopic(c.Context(), a, index); err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(a)
}

func (h *AutomationHandler) Runs(c *fiber.Ctx) error {
	if _, err := h.s.Get(c.Context(), c.Params("id")); err != nil {
		return errorJSON(c, err)
	}

	limit := c.QueryInt("limit", 20)
	runs, err := h.rr.ListByAutomationID(c.Context(), c.Params("id"), limit)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(runs)
}

func (h *AutomationHandler) Queue(c *fiber.Ctx) error {
	a, err := h.s.Get(c.Context(), c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	projection, err := h.qm.Projection(c.Context(), a)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(projection)
}

func (h *AutomationHandler) SkipQueueItem(c *fiber.Ctx) error {
	a, err := h.s.Get(c.Context(), c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	if err := h.qm.Skip(c.Context(), a); err != nil {
		return errorJSON(c, err)
	}

	projection, err := h.qm.Projection(c.Context(), a)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(projection)
}

func (h *AutomationHandler) PostRun(c *fiber.Ctx) error {
	if _, err := h.s.Get(c.Context(), c.Params("id")); err != nil {
		return errorJSON(c, err)
	}

	run, err := h.rr.GetByID(c.Context(), c.Params("runId"))
	if err != nil {
		return errorJSON(c, err)
	}
	if run == nil || run.AutomationID != c.Params("id") {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Run not found",
		})
	}

	var req transfer.PostRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	results, err := h.pd.PostNow(c.Context(), run, req.Platform)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"run":     run,
		"results": results,
	})
}
