package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sfoufcat/coachhub/internal/models"
	"go.uber.org/zap"
)

const (
	OrderBumpTypeProgram = "program"
	OrderBumpTypeSquad   = "squad"
)

type OrderBump struct {
	Type            string `json:"type" validate:"required"`
	ID              string `json:"id" validate:"required"`
	DiscountPercent int64  `json:"discountPercent,omitempty" validate:"gte=0,lte=100"`
}

type CheckoutIntent struct {
	URL            string
	SessionID      string
	IsSubscription bool
}

type customerCache interface {
	Get(ctx context.Context, userID string, accountID string) (string, error)
	Save(ctx context.Context, userID string, accountID string, customerID string) error
}

type programLookup interface {
	GetByID(ctx context.Context, programID string) (*models.Program, error)
}

type squadLookup interface {
	GetByID(ctx context.Context, squadID string) (*models.Squad, error)
}

type contentLookup interface {
	GetByID(ctx context.Context, contentID string) (*models.ContentItem, error)
}

type BuildCheckoutInput struct {
	Org           *models.Organization
	Program       *models.Program
	Cohort        *models.ProgramCohort
	Profile       *models.UserProfile
	UserID        string
	Quote         *models.DiscountQuote
	OrderBumps    []OrderBump
	JoinCommunity bool
	StartDate     *time.Time
}

type CheckoutService struct {
	payments    PaymentService
	customers   customerCache
	programRepo programLookup
	squadRepo   squadLookup
	contentRepo contentLookup
	successURL  string
	cancelURL   string
	logger      *zap.Logger
}

func NewCheckoutService(
	payments PaymentService,
	customers customerCache,
	programRepo programLookup,
	squadRepo squadLookup,
	contentRepo contentLookup,
	successURL string,
	cancelURL string,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		payments:    payments,
		customers:   customers,
		programRepo: programRepo,
		squadRepo:   squadRepo,
		contentRepo: contentRepo,
		successURL:  successURL,
		cancelURL:   cancelURL,
		logger:      logger,
	}
}

// Build assembles a checkout session on the organization's connected
// sub-account. The platform fee is computed on the final discounted amount,
// not the list price. Everything a later finalize needs to reconstruct the
// enrollment rides in the session metadata.
func (s *CheckoutService) Build(ctx context.Context, input BuildCheckoutInput) (*CheckoutIntent, error) {
	org := input.Org
	program := input.Program
	if org == nil || program == nil || input.Quote == nil {
		return nil, ErrInvalidInput
	}
	if org.StripeAccountID == nil || *org.StripeAccountID == "" {
		return nil, ErrPaymentsNotConfigured
	}
	accountID := *org.StripeAccountID

	customerID, err := s.ensureCustomer(ctx, accountID, input.UserID, input.Profile)
	if err != nil {
		return nil, err
	}

	metadata := s.buildMetadata(input)

	if program.IsSubscription && program.StripePriceID != nil {
		if len(input.OrderBumps) > 0 {
			s.logger.Info("order bumps dropped for subscription checkout",
				zap.String("program_id", program.ID),
				zap.Int("bumps", len(input.OrderBumps)),
			)
		}

		created, err := s.payments.CreateCheckoutSession(ctx, CreateCheckoutSessionInput{
			AccountID:             accountID,
			CustomerID:            customerID,
			Subscription:          true,
			PriceID:               *program.StripePriceID,
			ApplicationFeePercent: org.PlatformFeePercent,
			SuccessURL:            s.successURL,
			CancelURL:             s.cancelURL,
			Metadata:              metadata,
		})
		if err != nil {
			return nil, err
		}
		return &CheckoutIntent{URL: created.URL, SessionID: created.ID, IsSubscription: true}, nil
	}

	currency := program.Currency
	if currency == "" {
		currency = "usd"
	}

	lineItems := []CheckoutLineItem{
		{
			Name:        program.Name,
			AmountCents: input.Quote.FinalAmountCents,
			Currency:    currency,
			Quantity:    1,
		},
	}
	total := input.Quote.FinalAmountCents

	for _, bump := range input.OrderBumps {
		item, err := s.resolveOrderBump(ctx, org.ID, currency, bump)
		if err != nil {
			// Unresolvable or cross-tenant bumps never fail the checkout.
			s.logger.Warn("order bump dropped",
				zap.String("bump_type", bump.Type),
				zap.String("bump_id", bump.ID),
				zap.Error(err),
			)
			continue
		}
		lineItems = append(lineItems, *item)
		total += item.AmountCents
	}

	created, err := s.payments.CreateCheckoutSession(ctx, CreateCheckoutSessionInput{
		AccountID:            accountID,
		CustomerID:           customerID,
		LineItems:            lineItems,
		ApplicationFeeAmount: platformFee(total, org.PlatformFeePercent),
		SuccessURL:           s.successURL,
		CancelURL:            s.cancelURL,
		Metadata:             metadata,
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutIntent{URL: created.URL, SessionID: created.ID, IsSubscription: false}, nil
}

// GetSession re-fetches a checkout session from the processor so a finalize
// call works from processor-held state, not client input.
func (s *CheckoutService) GetSession(ctx context.Context, org *models.Organization, sessionID string) (*CheckoutSession, error) {
	if org.StripeAccountID == nil || *org.StripeAccountID == "" {
		return nil, ErrPaymentsNotConfigured
	}
	return s.payments.GetCheckoutSession(ctx, *org.StripeAccountID, sessionID)
}

func (s *CheckoutService) ensureCustomer(ctx context.Context, accountID string, userID string, profile *models.UserProfile) (string, error) {
	customerID, err := s.customers.Get(ctx, userID, accountID)
	if err == nil {
		return customerID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	email := ""
	name := ""
	if profile != nil {
		email = profile.Email
		name = profile.DisplayName()
	}
	customerID, err = s.payments.CreateCustomer(ctx, accountID, email, name)
	if err != nil {
		return "", err
	}
	if err := s.customers.Save(ctx, userID, accountID, customerID); err != nil {
		return "", err
	}
	return customerID, nil
}

func (s *CheckoutService) resolveOrderBump(ctx context.Context, orgID string, currency string, bump OrderBump) (*CheckoutLineItem, error) {
	var (
		name    string
		price   int64
		itemOrg string
	)

	switch bump.Type {
	case OrderBumpTypeProgram:
		program, err := s.programRepo.GetByID(ctx, bump.ID)
		if err != nil {
			return nil, err
		}
		name, price, itemOrg = program.Name, program.PriceInCents, program.OrgID
	case OrderBumpTypeSquad:
		squad, err := s.squadRepo.GetByID(ctx, bump.ID)
		if err != nil {
			return nil, err
		}
		name, price, itemOrg = squad.Name, squad.PriceInCents, squad.OrgID
	case models.ContentTypeArticle, models.ContentTypeCourse, models.ContentTypeEvent, models.ContentTypeDownload, models.ContentTypeLink:
		item, err := s.contentRepo.GetByID(ctx, bump.ID)
		if err != nil {
			return nil, err
		}
		if item.Type != bump.Type {
			return nil, fmt.Errorf("content %s is %s, not %s", bump.ID, item.Type, bump.Type)
		}
		name, price, itemOrg = item.Title, item.PriceInCents, item.OrgID
	default:
		return nil, fmt.Errorf("unknown order bump type %q", bump.Type)
	}

	if itemOrg != orgID {
		return nil, fmt.Errorf("order bump %s belongs to another organization", bump.ID)
	}
	if price <= 0 {
		return nil, fmt.Errorf("order bump %s has no price", bump.ID)
	}

	if bump.DiscountPercent > 0 {
		price -= computeDiscountAmount(models.DiscountTypePercentage, bump.DiscountPercent, price)
	}

	return &CheckoutLineItem{
		Name:        name,
		AmountCents: price,
		Currency:    currency,
		Quantity:    1,
	}, nil
}

func (s *CheckoutService) buildMetadata(input BuildCheckoutInput) map[string]string {
	metadata := map[string]string{
		"userId":              input.UserID,
		"orgId":               input.Org.ID,
		"programId":           input.Program.ID,
		"originalAmountCents": strconv.FormatInt(input.Program.PriceInCents, 10),
		"discountAmountCents": strconv.FormatInt(input.Quote.DiscountAmountCents, 10),
		"finalAmountCents":    strconv.FormatInt(input.Quote.FinalAmountCents, 10),
		"joinCommunity":       strconv.FormatBool(input.JoinCommunity),
	}
	if input.Cohort != nil {
		metadata["cohortId"] = input.Cohort.ID
	}
	if input.Quote.Code != nil {
		metadata["discountCodeId"] = input.Quote.Code.ID
		metadata["discountCode"] = input.Quote.Code.Code
	}
	if input.StartDate != nil {
		metadata["startDate"] = input.StartDate.Format("2006-01-02")
	}
	if len(input.OrderBumps) > 0 {
		if encoded, err := json.Marshal(input.OrderBumps); err == nil {
			metadata["orderBumps"] = string(encoded)
		}
	}
	return metadata
}

// platformFee rounds the percentage fee to the nearest cent.
func platformFee(amountCents int64, percent float64) int64 {
	if percent <= 0 || amountCents <= 0 {
		return 0
	}
	return int64(math.Round(float64(amountCents) * percent / 100))
}
