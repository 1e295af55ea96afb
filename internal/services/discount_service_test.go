package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sfoufcat/coachhub/internal/models"
)

type stubDiscountStore struct {
	code       *models.DiscountCode
	codeErr    error
	usedByUser int
	usedErr    error
	lastCode   string
}

func (s *stubDiscountStore) GetByCode(_ context.Context, _ string, code string) (*models.DiscountCode, error) {
	s.lastCode = code
	if s.codeErr != nil {
		return nil, s.codeErr
	}
	return s.code, nil
}

func (s *stubDiscountStore) CountRedemptionsByUser(_ context.Context, _ string, _ string) (int, error) {
	return s.usedByUser, s.usedErr
}

type stubProfileReader struct {
	profile *models.UserProfile
	err     error
}

func (s *stubProfileReader) GetByUser(_ context.Context, _ string, _ string) (*models.UserProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestEvaluatePercentageDiscount(t *testing.T) {
	store := &stubDiscountStore{
		code: &models.DiscountCode{
			ID:     "dc-1",
			OrgID:  "org-1",
			Code:   "SAVE20",
			Type:   models.DiscountTypePercentage,
			Value:  20,
			Active: true,
		},
	}
	service := NewDiscountService(store, &stubProfileReader{err: pgx.ErrNoRows})

	quote, err := service.Evaluate(context.Background(), EvaluateDiscountInput{
		OrgID:               "org-1",
		UserID:              "user-1",
		Code:                "  save20 ",
		ProductType:         "program",
		ProductID:           "prog-1",
		OriginalAmountCents: 10000,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !quote.Valid {
		t.Fatalf("expected valid quote")
	}
	if quote.DiscountAmountCents != 2000 {
		t.Fatalf("expected discount 2000, got %d", quote.DiscountAmountCents)
	}
	if quote.FinalAmountCents != 8000 {
		t.Fatalf("expected final 8000, got %d", quote.FinalAmountCents)
	}
	if store.lastCode != "SAVE20" {
		t.Fatalf("expected normalized code SAVE20, got %q", store.lastCode)
	}
}

func TestEvaluateFixedDiscountCappedAtOriginal(t *testing.T) {
	store := &stubDiscountStore{
		code: &models.DiscountCode{
			ID:     "dc-2",
			Code:   "BIGFIX",
			Type:   models.DiscountTypeFixed,
			Value:  5000,
			Active: true,
		},
	}
	service := NewDiscountService(store, &stubProfileReader{})

	quote, err := service.Evaluate(context.Background(), EvaluateDiscountInput{
		OrgID:               "org-1",
		UserID:              "user-1",
		Code:                "BIGFIX",
		ProductType:         "program",
		ProductID:           "prog-1",
		OriginalAmountCents: 3000,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if quote.DiscountAmountCents != 3000 || quote.FinalAmountCents != 0 {
		t.Fatalf("expected fully discounted quote, got %+v", quote)
	}
}

func TestEvaluateEmptyCodeReturnsNoDiscount(t *testing.T) {
	service := NewDiscountService(&stubDiscountStore{}, &stubProfileReader{})

	quote, err := service.Evaluate(context.Background(), EvaluateDiscountInput{
		OrgID:               "org-1",
		UserID:              "user-1",
		OriginalAmountCents: 4200,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if quote.Valid || quote.FinalAmountCents != 4200 {
		t.Fatalf("expected pass-through quote, got %+v", quote)
	}
}

func TestEvaluateRejections(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	cases := []struct {
		name    string
		store   *stubDiscountStore
		wantErr error
	}{
		{
			name:    "unknown code",
			store:   &stubDiscountStore{codeErr: pgx.ErrNoRows},
			wantErr: ErrDiscountNotFound,
		},
		{
			name: "inactive",
			store: &stubDiscountStore{code: &models.DiscountCode{
				ID: "dc", Code: "X", Type: models.DiscountTypeFixed, Value: 100,
			}},
			wantErr: ErrDiscountInactive,
		},
		{
			name: "not started",
			store: &stubDiscountStore{code: &models.DiscountCode{
				ID: "dc", Code: "X", Type: models.DiscountTypeFixed, Value: 100,
				Active: true, StartsAt: timePtr(future),
			}},
			wantErr: ErrDiscountNotStarted,
		},
		{
			name: "expired",
			store: &stubDiscountStore{code: &models.DiscountCode{
				ID: "dc", Code: "X", Type: models.DiscountTypeFixed, Value: 100,
				Active: true, ExpiresAt: timePtr(past),
			}},
			wantErr: ErrDiscountExpired,
		},
		{
			name: "exhausted",
			store: &stubDiscountStore{code: &models.DiscountCode{
				ID: "dc", Code: "X", Type: models.DiscountTypeFixed, Value: 100,
				Active: true, MaxUses: intPtr(5), UseCount: 5,
			}},
			wantErr: ErrDiscountExhausted,
		},
		{
			name: "per-user limit",
			store: &stubDiscountStore{
				code: &models.DiscountCode{
					ID: "dc", Code: "X", Type: models.DiscountTypeFixed, Value: 100,
					Active: true, MaxUsesPerUser: intPtr(1),
				},
				usedByUser: 1,
			},
			wantErr: ErrDiscountUserLimit,
		},
		{
			name: "wrong program",
			store: &stubDiscountStore{code: &models.DiscountCode{
				ID: "dc", Code: "X", Type: models.DiscountTypeFixed, Value: 100,
				Active: true, ProgramIDs: []string{"other-prog"},
			}},
			wantErr: ErrDiscountNotApplicable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := NewDiscountService(tc.store, &stubProfileReader{})
			_, err := service.Evaluate(context.Background(), EvaluateDiscountInput{
				OrgID:               "org-1",
				UserID:              "user-1",
				Code:                "X",
				ProductType:         "program",
				ProductID:           "prog-1",
				OriginalAmountCents: 1000,
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestEvaluateAlumniDiscount(t *testing.T) {
	org := &models.Organization{
		ID:                    "org-1",
		AlumniDiscountEnabled: true,
		AlumniDiscountType:    models.DiscountTypePercentage,
		AlumniDiscountValue:   50,
	}

	t.Run("eligible alumni", func(t *testing.T) {
		service := NewDiscountService(&stubDiscountStore{}, &stubProfileReader{
			profile: &models.UserProfile{OrgID: "org-1", UserID: "user-1", IsAlumni: true},
		})
		quote, err := service.Evaluate(context.Background(), EvaluateDiscountInput{
			OrgID: "org-1", UserID: "user-1", Code: "ALUMNI",
			ProductType: "program", ProductID: "prog-1", OriginalAmountCents: 10000,
			Org: org,
		})
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if !quote.Valid || quote.FinalAmountCents != 5000 {
			t.Fatalf("expected half price, got %+v", quote)
		}
	})

	t.Run("non-alumni is silently skipped", func(t *testing.T) {
		service := NewDiscountService(&stubDiscountStore{}, &stubProfileReader{
			profile: &models.UserProfile{OrgID: "org-1", UserID: "user-2"},
		})
		quote, err := service.Evaluate(context.Background(), EvaluateDiscountInput{
			OrgID: "org-1", UserID: "user-2", Code: "ALUMNI",
			ProductType: "program", ProductID: "prog-1", OriginalAmountCents: 10000,
			Org: org,
		})
		if err != nil {
			t.Fatalf("expected silent skip, got %v", err)
		}
		if quote.Valid || quote.FinalAmountCents != 10000 {
			t.Fatalf("expected no discount, got %+v", quote)
		}
	})

	t.Run("org has alumni discount disabled", func(t *testing.T) {
		service := NewDiscountService(&stubDiscountStore{}, &stubProfileReader{
			profile: &models.UserProfile{OrgID: "org-1", UserID: "user-1", IsAlumni: true},
		})
		quote, err := service.Evaluate(context.Background(), EvaluateDiscountInput{
			OrgID: "org-1", UserID: "user-1", Code: "ALUMNI",
			ProductType: "program", ProductID: "prog-1", OriginalAmountCents: 10000,
			Org: &models.Organization{ID: "org-1"},
		})
		if err != nil {
			t.Fatalf("expected silent skip, got %v", err)
		}
		if quote.Valid {
			t.Fatalf("expected no discount, got %+v", quote)
		}
	})
}

func TestComputeDiscountAmountRounding(t *testing.T) {
	// 15% of $0.33 is 4.95 cents, rounds up to 5.
	if got := computeDiscountAmount(models.DiscountTypePercentage, 15, 33); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := computeDiscountAmount(models.DiscountTypePercentage, 150, 1000); got != 1000 {
		t.Fatalf("expected cap at original, got %d", got)
	}
	if got := computeDiscountAmount(models.DiscountTypeFixed, -10, 1000); got != 0 {
		t.Fatalf("expected floor at zero, got %d", got)
	}
	if got := computeDiscountAmount("unknown", 50, 1000); got != 0 {
		t.Fatalf("expected unknown type to discount nothing, got %d", got)
	}
}
