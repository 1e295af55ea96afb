package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/sfoufcat/coachhub/internal/models"
	"github.com/sfoufcat/coachhub/internal/services"
)

var validate = validator.New()

type actor struct {
	UserID string
	OrgID  string
	Role   string
}

func actorFromLocals(c *fiber.Ctx) (actor, bool) {
	userID, okUser := c.Locals("user_id").(string)
	orgID, okOrg := c.Locals("org_id").(string)
	role, okRole := c.Locals("role").(string)
	if !okUser || !okOrg || !okRole || userID == "" || orgID == "" {
		return actor{}, false
	}
	return actor{UserID: userID, OrgID: orgID, Role: role}, true
}

func (a actor) canActFor(targetUserID string) bool {
	if targetUserID == "" || targetUserID == a.UserID {
		return true
	}
	return a.Role == models.RoleAdmin || a.Role == models.RoleCoach
}

// mapEnrollmentError translates service errors to HTTP responses. Sentinel
// validation errors carry user-displayable text, so their messages go out
// verbatim.
func mapEnrollmentError(c *fiber.Ctx, err error) error {
	var conflict *services.EnrollmentConflictError
	if errors.As(err, &conflict) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": conflict.Error()})
	}

	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrProgramNotFound),
		errors.Is(err, services.ErrCohortNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrProgramInactive),
		errors.Is(err, services.ErrCohortClosed),
		errors.Is(err, services.ErrCohortFull),
		errors.Is(err, services.ErrAlreadyEnrolled),
		errors.Is(err, services.ErrInvalidStartDate),
		errors.Is(err, services.ErrNoCoachConfigured),
		errors.Is(err, services.ErrPaymentsNotConfigured):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case isDiscountError(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Resource not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process enrollment request"})
	}
}

func isDiscountError(err error) bool {
	return errors.Is(err, services.ErrDiscountNotFound) ||
		errors.Is(err, services.ErrDiscountInactive) ||
		errors.Is(err, services.ErrDiscountNotStarted) ||
		errors.Is(err, services.ErrDiscountExpired) ||
		errors.Is(err, services.ErrDiscountExhausted) ||
		errors.Is(err, services.ErrDiscountUserLimit) ||
		errors.Is(err, services.ErrDiscountNotApplicable)
}
