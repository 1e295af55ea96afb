package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidInput  = errors.New("invalid input")
	ErrCoachNotFound = errors.New("coach not found")
)

// Validation sentinels carry text suitable for direct display to the
// enrolling user; handlers return them verbatim with a 400.
var (
	ErrProgramNotFound       = errors.New("Program not found")
	ErrProgramInactive       = errors.New("This program is not open for enrollment")
	ErrCohortNotFound        = errors.New("Cohort not found")
	ErrCohortClosed          = errors.New("Enrollment for this cohort is closed")
	ErrCohortFull            = errors.New("This cohort is full")
	ErrAlreadyEnrolled       = errors.New("You are already enrolled in this program")
	ErrInvalidStartDate      = errors.New("Invalid start date")
	ErrPaymentsNotConfigured = errors.New("Payments are not set up for this organization")
	ErrNoCoachConfigured     = errors.New("No coach is configured for this organization")

	ErrDiscountNotFound      = errors.New("Invalid discount code")
	ErrDiscountInactive      = errors.New("This discount code is no longer active")
	ErrDiscountNotStarted    = errors.New("This discount code is not active yet")
	ErrDiscountExpired       = errors.New("This discount code has expired")
	ErrDiscountExhausted     = errors.New("This discount code has reached its usage limit")
	ErrDiscountUserLimit     = errors.New("You have already used this discount code")
	ErrDiscountNotApplicable = errors.New("This discount code cannot be applied to this purchase")
)

// EnrollmentConflictError rejects an enrollment that would overlap an
// existing one of the same program type. EndsOn is surfaced so the caller
// can retry with a later start date.
type EnrollmentConflictError struct {
	ProgramName string
	EndsOn      time.Time
}

func (e *EnrollmentConflictError) Error() string {
	return fmt.Sprintf(
		"You already have an active %s enrollment ending on %s. Choose a start date after that.",
		e.ProgramName,
		e.EndsOn.Format("2006-01-02"),
	)
}
