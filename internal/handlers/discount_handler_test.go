package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sfoufcat/coachhub/internal/models"
	"github.com/sfoufcat/coachhub/internal/services"
)

type stubDiscountService struct {
	quote     *models.DiscountQuote
	err       error
	lastInput services.EvaluateDiscountInput
}

func (s *stubDiscountService) Evaluate(_ context.Context, input services.EvaluateDiscountInput) (*models.DiscountQuote, error) {
	s.lastInput = input
	return s.quote, s.err
}

type stubOrgLookup struct {
	org *models.Organization
}

func (s *stubOrgLookup) GetByID(_ context.Context, _ string) (*models.Organization, error) {
	return s.org, nil
}

type stubProgramPricing struct {
	program *models.Program
}

func (s *stubProgramPricing) GetByID(_ context.Context, _ string) (*models.Program, error) {
	return s.program, nil
}

func newDiscountTestApp(service *stubDiscountService, program *models.Program) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		c.Locals("org_id", "org-1")
		c.Locals("role", models.RoleMember)
		return c.Next()
	})
	handler := NewDiscountHandler(service, &stubOrgLookup{org: &models.Organization{ID: "org-1"}}, &stubProgramPricing{program: program})
	app.Post("/api/v1/discounts/validate", handler.ValidateDiscount)
	return app
}

func TestValidateDiscountQuotesCode(t *testing.T) {
	service := &stubDiscountService{quote: &models.DiscountQuote{
		Valid:               true,
		Code:                &models.DiscountCode{Code: "SAVE20"},
		DiscountAmountCents: 2000,
		FinalAmountCents:    8000,
	}}
	program := &models.Program{ID: "prog-1", OrgID: "org-1", PriceInCents: 10000}
	app := newDiscountTestApp(service, program)

	resp := postJSON(t, app, "/api/v1/discounts/validate", fiber.Map{
		"code":      "SAVE20",
		"programId": "prog-1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	payload := decodeBody(t, resp)
	if payload["valid"] != true {
		t.Fatalf("expected valid quote, got %v", payload)
	}
	if payload["finalAmountCents"] != float64(8000) {
		t.Fatalf("expected final amount 8000, got %v", payload["finalAmountCents"])
	}
	if payload["code"] != "SAVE20" {
		t.Fatalf("expected code SAVE20, got %v", payload["code"])
	}
	if service.lastInput.OriginalAmountCents != 10000 {
		t.Fatalf("expected program price forwarded, got %d", service.lastInput.OriginalAmountCents)
	}
}

func TestValidateDiscountUnknownCode(t *testing.T) {
	service := &stubDiscountService{err: services.ErrDiscountNotFound}
	program := &models.Program{ID: "prog-1", OrgID: "org-1", PriceInCents: 10000}
	app := newDiscountTestApp(service, program)

	resp := postJSON(t, app, "/api/v1/discounts/validate", fiber.Map{
		"code":      "NOPE",
		"programId": "prog-1",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	payload := decodeBody(t, resp)
	if payload["error"] != "Invalid discount code" {
		t.Fatalf("unexpected error message: %v", payload["error"])
	}
}

func TestValidateDiscountCrossTenantProgram(t *testing.T) {
	service := &stubDiscountService{}
	program := &models.Program{ID: "prog-1", OrgID: "org-other", PriceInCents: 10000}
	app := newDiscountTestApp(service, program)

	resp := postJSON(t, app, "/api/v1/discounts/validate", fiber.Map{
		"code":      "SAVE20",
		"programId": "prog-1",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
