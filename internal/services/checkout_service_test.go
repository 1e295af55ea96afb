package services

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/sfoufcat/coachhub/internal/models"
	"go.uber.org/zap"
)

type stubPaymentService struct {
	lastInput       CreateCheckoutSessionInput
	createdCustomer string
	session         *CheckoutSession
}

func (s *stubPaymentService) CreateCustomer(_ context.Context, _ string, _ string, _ string) (string, error) {
	s.createdCustomer = "cus_stub"
	return s.createdCustomer, nil
}

func (s *stubPaymentService) CreateCheckoutSession(_ context.Context, input CreateCheckoutSessionInput) (*CheckoutSession, error) {
	s.lastInput = input
	if s.session != nil {
		return s.session, nil
	}
	return &CheckoutSession{ID: "cs_test", URL: "https://checkout.test/cs_test"}, nil
}

func (s *stubPaymentService) GetCheckoutSession(_ context.Context, _ string, _ string) (*CheckoutSession, error) {
	return s.session, nil
}

type stubCustomerCache struct {
	customerID string
	saved      string
}

func (s *stubCustomerCache) Get(_ context.Context, _ string, _ string) (string, error) {
	if s.customerID == "" {
		return "", pgx.ErrNoRows
	}
	return s.customerID, nil
}

func (s *stubCustomerCache) Save(_ context.Context, _ string, _ string, customerID string) error {
	s.saved = customerID
	return nil
}

type stubSquadLookup struct {
	squad *models.Squad
}

func (s *stubSquadLookup) GetByID(_ context.Context, _ string) (*models.Squad, error) {
	if s.squad == nil {
		return nil, pgx.ErrNoRows
	}
	return s.squad, nil
}

type stubContentLookup struct {
	item *models.ContentItem
}

func (s *stubContentLookup) GetByID(_ context.Context, _ string) (*models.ContentItem, error) {
	if s.item == nil {
		return nil, pgx.ErrNoRows
	}
	return s.item, nil
}

func newTestCheckoutService(payments *stubPaymentService, programs programLookup, squads squadLookup, contents contentLookup) *CheckoutService {
	return NewCheckoutService(
		payments,
		&stubCustomerCache{customerID: "cus_1"},
		programs,
		squads,
		contents,
		"https://app.test/success",
		"https://app.test/cancel",
		zap.NewNop(),
	)
}

func checkoutOrg() *models.Organization {
	return &models.Organization{
		ID:                 "org-1",
		PlatformFeePercent: 10,
		StripeAccountID:    strPtr("acct_1"),
	}
}

func TestBuildComputesFeeOnDiscountedAmount(t *testing.T) {
	payments := &stubPaymentService{}
	service := newTestCheckoutService(payments, &stubProgramLookup{programs: map[string]*models.Program{}}, &stubSquadLookup{}, &stubContentLookup{})

	program := &models.Program{ID: "prog-1", OrgID: "org-1", Name: "Kickstart", PriceInCents: 10000, Currency: "usd"}
	intent, err := service.Build(context.Background(), BuildCheckoutInput{
		Org:     checkoutOrg(),
		Program: program,
		UserID:  "user-1",
		Quote:   &models.DiscountQuote{Valid: true, DiscountAmountCents: 2000, FinalAmountCents: 8000},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if intent.IsSubscription {
		t.Fatalf("expected one-time checkout")
	}
	if payments.lastInput.ApplicationFeeAmount != 800 {
		t.Fatalf("expected fee on discounted amount (800), got %d", payments.lastInput.ApplicationFeeAmount)
	}
	if len(payments.lastInput.LineItems) != 1 || payments.lastInput.LineItems[0].AmountCents != 8000 {
		t.Fatalf("unexpected line items: %+v", payments.lastInput.LineItems)
	}
}

func TestBuildSubscriptionDropsOrderBumps(t *testing.T) {
	payments := &stubPaymentService{}
	service := newTestCheckoutService(payments, &stubProgramLookup{programs: map[string]*models.Program{}}, &stubSquadLookup{}, &stubContentLookup{})

	program := &models.Program{
		ID:             "prog-1",
		OrgID:          "org-1",
		Name:           "Monthly Coaching",
		PriceInCents:   5000,
		IsSubscription: true,
		StripePriceID:  strPtr("price_123"),
	}
	intent, err := service.Build(context.Background(), BuildCheckoutInput{
		Org:        checkoutOrg(),
		Program:    program,
		UserID:     "user-1",
		Quote:      &models.DiscountQuote{FinalAmountCents: 5000},
		OrderBumps: []OrderBump{{Type: OrderBumpTypeProgram, ID: "prog-2"}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !intent.IsSubscription {
		t.Fatalf("expected subscription checkout")
	}
	if !payments.lastInput.Subscription || payments.lastInput.PriceID != "price_123" {
		t.Fatalf("unexpected subscription input: %+v", payments.lastInput)
	}
	if len(payments.lastInput.LineItems) != 0 {
		t.Fatalf("expected bumps dropped for subscription, got %+v", payments.lastInput.LineItems)
	}
	if payments.lastInput.ApplicationFeePercent != 10 {
		t.Fatalf("expected fee percent 10, got %v", payments.lastInput.ApplicationFeePercent)
	}
}

func TestBuildDropsCrossTenantOrderBump(t *testing.T) {
	payments := &stubPaymentService{}
	programs := &stubProgramLookup{programs: map[string]*models.Program{
		"prog-other": {ID: "prog-other", OrgID: "org-other", Name: "Foreign", PriceInCents: 4000},
	}}
	service := newTestCheckoutService(payments, programs, &stubSquadLookup{}, &stubContentLookup{})

	program := &models.Program{ID: "prog-1", OrgID: "org-1", Name: "Kickstart", PriceInCents: 10000}
	if _, err := service.Build(context.Background(), BuildCheckoutInput{
		Org:        checkoutOrg(),
		Program:    program,
		UserID:     "user-1",
		Quote:      &models.DiscountQuote{FinalAmountCents: 10000},
		OrderBumps: []OrderBump{{Type: OrderBumpTypeProgram, ID: "prog-other"}},
	}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(payments.lastInput.LineItems) != 1 {
		t.Fatalf("expected cross-tenant bump dropped, got %+v", payments.lastInput.LineItems)
	}
	if payments.lastInput.ApplicationFeeAmount != 1000 {
		t.Fatalf("expected fee only on main item, got %d", payments.lastInput.ApplicationFeeAmount)
	}
}

func TestBuildAppliesBumpDiscountAndFeeOnTotal(t *testing.T) {
	payments := &stubPaymentService{}
	contents := &stubContentLookup{item: &models.ContentItem{
		ID:           "content-1",
		OrgID:        "org-1",
		Type:         models.ContentTypeCourse,
		Title:        "Mobility Course",
		PriceInCents: 2000,
	}}
	service := newTestCheckoutService(payments, &stubProgramLookup{programs: map[string]*models.Program{}}, &stubSquadLookup{}, contents)

	program := &models.Program{ID: "prog-1", OrgID: "org-1", Name: "Kickstart", PriceInCents: 10000}
	if _, err := service.Build(context.Background(), BuildCheckoutInput{
		Org:        checkoutOrg(),
		Program:    program,
		UserID:     "user-1",
		Quote:      &models.DiscountQuote{FinalAmountCents: 10000},
		OrderBumps: []OrderBump{{Type: models.ContentTypeCourse, ID: "content-1", DiscountPercent: 50}},
	}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(payments.lastInput.LineItems) != 2 {
		t.Fatalf("expected two line items, got %+v", payments.lastInput.LineItems)
	}
	if payments.lastInput.LineItems[1].AmountCents != 1000 {
		t.Fatalf("expected bump discounted to 1000, got %d", payments.lastInput.LineItems[1].AmountCents)
	}
	// 10% of 11000.
	if payments.lastInput.ApplicationFeeAmount != 1100 {
		t.Fatalf("expected fee 1100, got %d", payments.lastInput.ApplicationFeeAmount)
	}
}

func TestBuildMetadataCarriesFinalizeState(t *testing.T) {
	payments := &stubPaymentService{}
	service := newTestCheckoutService(payments, &stubProgramLookup{programs: map[string]*models.Program{}}, &stubSquadLookup{}, &stubContentLookup{})

	program := &models.Program{ID: "prog-1", OrgID: "org-1", Name: "Kickstart", PriceInCents: 10000}
	cohort := &models.ProgramCohort{ID: "cohort-1"}
	start := date(2024, 7, 1)
	if _, err := service.Build(context.Background(), BuildCheckoutInput{
		Org:           checkoutOrg(),
		Program:       program,
		Cohort:        cohort,
		UserID:        "user-1",
		JoinCommunity: true,
		StartDate:     &start,
		Quote: &models.DiscountQuote{
			Valid:               true,
			DiscountAmountCents: 2000,
			FinalAmountCents:    8000,
			Code:                &models.DiscountCode{ID: "dc-1", Code: "SAVE20"},
		},
	}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	meta := payments.lastInput.Metadata
	expectations := map[string]string{
		"userId":              "user-1",
		"orgId":               "org-1",
		"programId":           "prog-1",
		"cohortId":            "cohort-1",
		"discountCode":        "SAVE20",
		"discountAmountCents": "2000",
		"finalAmountCents":    "8000",
		"joinCommunity":       "true",
		"startDate":           "2024-07-01",
	}
	for key, want := range expectations {
		if meta[key] != want {
			t.Fatalf("metadata %s: expected %q, got %q", key, want, meta[key])
		}
	}
}

func TestBuildRequiresConnectedAccount(t *testing.T) {
	service := newTestCheckoutService(&stubPaymentService{}, &stubProgramLookup{}, &stubSquadLookup{}, &stubContentLookup{})

	_, err := service.Build(context.Background(), BuildCheckoutInput{
		Org:     &models.Organization{ID: "org-1"},
		Program: &models.Program{ID: "prog-1", OrgID: "org-1"},
		UserID:  "user-1",
		Quote:   &models.DiscountQuote{FinalAmountCents: 1000},
	})
	if err != ErrPaymentsNotConfigured {
		t.Fatalf("expected ErrPaymentsNotConfigured, got %v", err)
	}
}
