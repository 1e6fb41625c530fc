package controller

import (
	"net/url"

	"ai-casebrief-be/internal/dto"
	"ai-casebrief-be/internal/pkg/serverutils"
	"ai-casebrief-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICaseController interface {
	RegisterRoutes(r fiber.Router, guards ...fiber.Handler)
	SubmitEvent(ctx *fiber.Ctx) error
	SubmitAction(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	ToolInvocations(ctx *fiber.Ctx) error
	Briefs(ctx *fiber.Ctx) error
	GenerateBriefs(ctx *fiber.Ctx) error
}

type caseController struct {
	caseService   service.ICaseService
	actionService service.IActionService
	briefService  service.IBriefService
}

func NewCaseController(caseService service.ICaseService, actionService service.IActionService, briefService service.IBriefService) ICaseController {
	return &caseController{
		caseService:   caseService,
		actionService: actionService,
		briefService:  briefService,
	}
}

func (c *caseController) RegisterRoutes(r fiber.Router, guards ...fiber.Handler) {
	h := r.Group("/v1")
	for _, g := range guards {
		h.Use(g)
	}
	h.Post("events", c.SubmitEvent)
	h.Post("actions", c.SubmitAction)
	h.Get("cases", c.List)
	h.Get("cases/:id", c.Show)
	h.Get("cases/:id/tool-invocations", c.ToolInvocations)
	h.Get("cases/:id/briefs", c.Briefs)
	h.Post("cases/:id/briefs", c.GenerateBriefs)
}

func (c *caseController) SubmitEvent(ctx *fiber.Ctx) error {
	var req dto.SubmitEventRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.caseService.SubmitEvent(ctx.UserContext(), &req)
	return serverutils.RespondOutcome(ctx, "Event accepted", res, err)
}

func (c *caseController) SubmitAction(ctx *fiber.Ctx) error {
	var req dto.SubmitActionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.actionService.SubmitAction(ctx.UserContext(), &req)
	return serverutils.RespondOutcome(ctx, "Action applied", res, err)
}

func (c *caseController) Show(ctx *fiber.Ctx) error {
	id, err := caseIDParam(ctx)
	if err != nil {
		return err
	}
	res, err := c.caseService.GetCase(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get case", res))
}

func (c *caseController) List(ctx *fiber.Ctx) error {
	var req dto.ListCasesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.caseService.ListCases(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list cases", res))
}

func (c *caseController) ToolInvocations(ctx *fiber.Ctx) error {
	id, err := caseIDParam(ctx)
	if err != nil {
		return err
	}
	res, err := c.caseService.ListToolInvocations(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list tool invocations", res))
}

func (c *caseController) Briefs(ctx *fiber.Ctx) error {
	id, err := caseIDParam(ctx)
	if err != nil {
		return err
	}
	res, err := c.briefService.ListBriefs(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list briefs", res))
}

// GenerateBriefs returns whatever briefs exist even when one audience failed,
// so the caller can retry only the missing ones.
func (c *caseController) GenerateBriefs(ctx *fiber.Ctx) error {
	id, err := caseIDParam(ctx)
	if err != nil {
		return err
	}
	res, err := c.briefService.GenerateForCase(ctx.UserContext(), id)
	if err != nil && len(res) == 0 {
		return err
	}
	if err != nil {
		status := serverutils.StatusFor(err)
		return ctx.Status(status).JSON(serverutils.OutcomeResponse(status, err.Error(), res))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success generate briefs", res))
}

// Case ids contain ':' and may arrive percent-encoded.
func caseIDParam(ctx *fiber.Ctx) (string, error) {
	id, err := url.PathUnescape(ctx.Params("id"))
	if err != nil || id == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid case id")
	}
	return id, nil
}
