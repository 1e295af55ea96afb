package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sfoufcat/coachhub/internal/models"
	"github.com/sfoufcat/coachhub/internal/repository"
)

type discountStore interface {
	GetByCode(ctx context.Context, orgID string, code string) (*models.DiscountCode, error)
	CountRedemptionsByUser(ctx context.Context, codeID string, userID string) (int, error)
}

type profileReader interface {
	GetByUser(ctx context.Context, orgID string, userID string) (*models.UserProfile, error)
}

type EvaluateDiscountInput struct {
	OrgID               string
	UserID              string
	Code                string
	ProductType         string
	ProductID           string
	OriginalAmountCents int64
	Org                 *models.Organization
}

type DiscountService struct {
	discountRepo discountStore
	profileRepo  profileReader
}

func NewDiscountService(discountRepo discountStore, profileRepo profileReader) *DiscountService {
	return &DiscountService{
		discountRepo: discountRepo,
		profileRepo:  profileRepo,
	}
}

// Evaluate validates a code against its constraints and computes the final
// price. It never writes: redemption is recorded only when an enrollment is
// finalized, see RecordRedemption.
//
// The reserved ALUMNI code is an implicit discount, not a user-entered one:
// when the user does not qualify it is silently not applied (Valid=false, nil
// error) instead of failing the request.
func (s *DiscountService) Evaluate(ctx context.Context, input EvaluateDiscountInput) (*models.DiscountQuote, error) {
	if input.OriginalAmountCents < 0 {
		return nil, ErrInvalidInput
	}

	noDiscount := &models.DiscountQuote{
		Valid:            false,
		FinalAmountCents: input.OriginalAmountCents,
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return noDiscount, nil
	}

	if code == models.AlumniDiscountCode {
		return s.evaluateAlumni(ctx, input, noDiscount)
	}

	discount, err := s.discountRepo.GetByCode(ctx, input.OrgID, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDiscountNotFound
		}
		return nil, err
	}

	now := time.Now()
	if !discount.Active {
		return nil, ErrDiscountInactive
	}
	if discount.StartsAt != nil && now.Before(*discount.StartsAt) {
		return nil, ErrDiscountNotStarted
	}
	if discount.ExpiresAt != nil && now.After(*discount.ExpiresAt) {
		return nil, ErrDiscountExpired
	}
	if discount.MaxUses != nil && discount.UseCount >= *discount.MaxUses {
		return nil, ErrDiscountExhausted
	}
	if discount.MaxUsesPerUser != nil {
		used, err := s.discountRepo.CountRedemptionsByUser(ctx, discount.ID, input.UserID)
		if err != nil {
			return nil, err
		}
		if used >= *discount.MaxUsesPerUser {
			return nil, ErrDiscountUserLimit
		}
	}
	if !discountApplies(discount, input.ProductType, input.ProductID) {
		return nil, ErrDiscountNotApplicable
	}

	discountAmount := computeDiscountAmount(discount.Type, discount.Value, input.OriginalAmountCents)
	return &models.DiscountQuote{
		Valid:               true,
		DiscountAmountCents: discountAmount,
		FinalAmountCents:    input.OriginalAmountCents - discountAmount,
		Code:                discount,
	}, nil
}

func (s *DiscountService) evaluateAlumni(ctx context.Context, input EvaluateDiscountInput, noDiscount *models.DiscountQuote) (*models.DiscountQuote, error) {
	if input.Org == nil || !input.Org.AlumniDiscountEnabled {
		return noDiscount, nil
	}

	profile, err := s.profileRepo.GetByUser(ctx, input.OrgID, input.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return noDiscount, nil
		}
		return nil, err
	}
	if !profile.IsAlumni {
		return noDiscount, nil
	}

	discountAmount := computeDiscountAmount(input.Org.AlumniDiscountType, input.Org.AlumniDiscountValue, input.OriginalAmountCents)
	return &models.DiscountQuote{
		Valid:               true,
		DiscountAmountCents: discountAmount,
		FinalAmountCents:    input.OriginalAmountCents - discountAmount,
	}, nil
}

// RecordRedemption logs the usage and bumps the code's use count. It runs
// over the enrollment transaction so a capped code can never be redeemed past
// max_uses, and an abandoned quote never consumes a use.
func (s *DiscountService) RecordRedemption(
	ctx context.Context,
	db repository.DBTX,
	code *models.DiscountCode,
	userID string,
	enrollmentID string,
	amountCents int64,
) error {
	txDiscountRepo := repository.NewDiscountRepository(db)

	if err := txDiscountRepo.IncrementUseCount(ctx, code.ID); err != nil {
		if errors.Is(err, repository.ErrDiscountExhausted) {
			return ErrDiscountExhausted
		}
		return err
	}

	return txDiscountRepo.InsertRedemption(ctx, models.DiscountRedemption{
		ID:           uuid.NewString(),
		OrgID:        code.OrgID,
		CodeID:       code.ID,
		UserID:       userID,
		EnrollmentID: &enrollmentID,
		AmountCents:  amountCents,
	})
}

func discountApplies(discount *models.DiscountCode, productType string, productID string) bool {
	switch discount.ApplicableTo {
	case "", models.DiscountApplicableToAll:
	case models.DiscountApplicableToPrograms:
		if productType != "program" {
			return false
		}
	case models.DiscountApplicableToSquads:
		if productType != "squad" {
			return false
		}
	default:
		return false
	}

	if productType == "program" && len(discount.ProgramIDs) > 0 && !containsString(discount.ProgramIDs, productID) {
		return false
	}
	if productType == "squad" && len(discount.SquadIDs) > 0 && !containsString(discount.SquadIDs, productID) {
		return false
	}
	return true
}

// computeDiscountAmount rounds percentage discounts to the nearest cent and
// caps fixed discounts at the original amount, so the final price is always
// in [0, original].
func computeDiscountAmount(discountType string, value int64, originalCents int64) int64 {
	switch discountType {
	case models.DiscountTypePercentage:
		amount := int64(math.Round(float64(originalCents) * float64(value) / 100))
		if amount > originalCents {
			return originalCents
		}
		if amount < 0 {
			return 0
		}
		return amount
	case models.DiscountTypeFixed:
		if value > originalCents {
			return originalCents
		}
		if value < 0 {
			return 0
		}
		return value
	default:
		return 0
	}
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
