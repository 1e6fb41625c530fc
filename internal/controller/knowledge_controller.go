package controller

import (
	"ai-casebrief-be/internal/dto"
	"ai-casebrief-be/internal/pkg/serverutils"
	"ai-casebrief-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router, guards ...fiber.Handler)
	Ingest(ctx *fiber.Ctx) error
	UpsertTag(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	knowledgeService service.IKnowledgeService
}

func NewKnowledgeController(knowledgeService service.IKnowledgeService) IKnowledgeController {
	return &knowledgeController{knowledgeService: knowledgeService}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router, guards ...fiber.Handler) {
	h := r.Group("/v1/knowledge")
	for _, g := range guards {
		h.Use(g)
	}
	h.Post("", c.Ingest)
	h.Post("tags", c.UpsertTag)
}

// Ingest queues the document; embedding happens on the consumer.
func (c *knowledgeController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestKnowledgeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.knowledgeService.Enqueue(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document queued", res))
}

func (c *knowledgeController) UpsertTag(ctx *fiber.Ctx) error {
	var req dto.UpsertTagRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.knowledgeService.UpsertTag(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success upsert tag", res))
}
