package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sfoufcat/coachhub/internal/models"
	"github.com/sfoufcat/coachhub/internal/services"
)

type enrollmentApplicationService interface {
	Enroll(ctx context.Context, input services.EnrollInput) (*services.EnrollResult, error)
	FinalizeCheckout(ctx context.Context, orgID string, sessionID string) (*models.ProgramEnrollment, error)
}

type enrollRequest struct {
	ProgramID     string               `json:"programId" validate:"required"`
	CohortID      string               `json:"cohortId"`
	TargetUserID  string               `json:"targetUserId"`
	DiscountCode  string               `json:"discountCode" validate:"max=64"`
	JoinCommunity bool                 `json:"joinCommunity"`
	StartDate     string               `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	OrderBumps    []services.OrderBump `json:"orderBumps" validate:"max=10,dive"`
}

type completeCheckoutRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

type enrollmentResponse struct {
	ID         string    `json:"id"`
	ProgramID  string    `json:"programId"`
	CohortID   *string   `json:"cohortId,omitempty"`
	SquadID    *string   `json:"squadId,omitempty"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"startedAt"`
	AmountPaid int64     `json:"amountPaid"`
}

type EnrollmentHandler struct {
	service enrollmentApplicationService
}

func NewEnrollmentHandler(service enrollmentApplicationService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

func (h *EnrollmentHandler) Enroll(c *fiber.Ctx) error {
	auth, ok := actorFromLocals(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req enrollRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if !auth.canActFor(req.TargetUserID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID := auth.UserID
	if req.TargetUserID != "" {
		userID = req.TargetUserID
	}

	var startDate *time.Time
	if req.StartDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.StartDate, time.Local)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start date"})
		}
		startDate = &parsed
	}

	result, err := h.service.Enroll(c.Context(), services.EnrollInput{
		OrgID:         auth.OrgID,
		UserID:        userID,
		ProgramID:     req.ProgramID,
		CohortID:      req.CohortID,
		DiscountCode:  req.DiscountCode,
		JoinCommunity: req.JoinCommunity,
		StartDate:     startDate,
		OrderBumps:    req.OrderBumps,
	})
	if err != nil {
		return mapEnrollmentError(c, err)
	}

	if result.Checkout != nil {
		return c.JSON(fiber.Map{
			"requiresPayment": true,
			"checkoutUrl":     result.Checkout.URL,
			"sessionId":       result.Checkout.SessionID,
			"isSubscription":  result.Checkout.IsSubscription,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":      true,
		"enrollmentId": result.Enrollment.ID,
		"squadId":      result.Enrollment.SquadID,
		"status":       result.Enrollment.Status,
		"startedAt":    result.Enrollment.StartedAt,
		"message":      "Enrolled successfully",
	})
}

func (h *EnrollmentHandler) CompleteCheckout(c *fiber.Ctx) error {
	auth, ok := actorFromLocals(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req completeCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	enrollment, err := h.service.FinalizeCheckout(c.Context(), auth.OrgID, req.SessionID)
	if err != nil {
		return mapEnrollmentError(c, err)
	}

	return c.JSON(fiber.Map{"enrollment": newEnrollmentResponse(enrollment)})
}

func newEnrollmentResponse(enrollment *models.ProgramEnrollment) *enrollmentResponse {
	if enrollment == nil {
		return nil
	}
	return &enrollmentResponse{
		ID:         enrollment.ID,
		ProgramID:  enrollment.ProgramID,
		CohortID:   enrollment.CohortID,
		SquadID:    enrollment.SquadID,
		Status:     enrollment.Status,
		StartedAt:  enrollment.StartedAt,
		AmountPaid: enrollment.AmountPaid,
	}
}
