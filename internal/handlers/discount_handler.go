package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sfoufcat/coachhub/internal/models"
	"github.com/sfoufcat/coachhub/internal/services"
)

type discountApplicationService interface {
	Evaluate(ctx context.Context, input services.EvaluateDiscountInput) (*models.DiscountQuote, error)
}

type orgLookup interface {
	GetByID(ctx context.Context, orgID string) (*models.Organization, error)
}

type programPricing interface {
	GetByID(ctx context.Context, programID string) (*models.Program, error)
}

type validateDiscountRequest struct {
	Code      string `json:"code" validate:"required,max=64"`
	ProgramID string `json:"programId" validate:"required"`
}

type DiscountHandler struct {
	service  discountApplicationService
	orgs     orgLookup
	programs programPricing
}

func NewDiscountHandler(service discountApplicationService, orgs orgLookup, programs programPricing) *DiscountHandler {
	return &DiscountHandler{service: service, orgs: orgs, programs: programs}
}

// ValidateDiscount quotes a discount code against a program's price without
// consuming a use.
func (h *DiscountHandler) ValidateDiscount(c *fiber.Ctx) error {
	auth, ok := actorFromLocals(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req validateDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	program, err := h.programs.GetByID(c.Context(), req.ProgramID)
	if err != nil {
		return mapEnrollmentError(c, err)
	}
	if program.OrgID != auth.OrgID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	org, err := h.orgs.GetByID(c.Context(), auth.OrgID)
	if err != nil {
		return mapEnrollmentError(c, err)
	}

	quote, err := h.service.Evaluate(c.Context(), services.EvaluateDiscountInput{
		OrgID:               auth.OrgID,
		UserID:              auth.UserID,
		Code:                req.Code,
		ProductType:         "program",
		ProductID:           program.ID,
		OriginalAmountCents: program.PriceInCents,
		Org:                 org,
	})
	if err != nil {
		return mapEnrollmentError(c, err)
	}

	resp := fiber.Map{
		"valid":               quote.Valid,
		"originalAmountCents": program.PriceInCents,
		"discountAmountCents": quote.DiscountAmountCents,
		"finalAmountCents":    quote.FinalAmountCents,
	}
	if quote.Code != nil {
		resp["code"] = quote.Code.Code
	}
	return c.JSON(resp)
}
