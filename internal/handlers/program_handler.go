package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/sfoufcat/coachhub/internal/models"
)

type programCatalog interface {
	GetByID(ctx context.Context, programID string) (*models.Program, error)
	ListPublished(ctx context.Context, orgID string, limit int, offset int) ([]models.Program, int, error)
}

type cohortCatalog interface {
	ListByProgram(ctx context.Context, programID string) ([]models.ProgramCohort, error)
}

type programResponse struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Type                 string     `json:"type"`
	PriceInCents         int64      `json:"priceInCents"`
	Currency             string     `json:"currency"`
	LengthDays           int        `json:"lengthDays"`
	IsSubscription       bool       `json:"isSubscription"`
	DefaultStartDate     *time.Time `json:"defaultStartDate,omitempty"`
	AllowCustomStartDate bool       `json:"allowCustomStartDate"`
}

type cohortResponse struct {
	ID                string    `json:"id"`
	StartDate         time.Time `json:"startDate"`
	EnrollmentOpen    bool      `json:"enrollmentOpen"`
	MaxEnrollment     *int      `json:"maxEnrollment,omitempty"`
	CurrentEnrollment int       `json:"currentEnrollment"`
}

type ProgramHandler struct {
	programs programCatalog
	cohorts  cohortCatalog
}

func NewProgramHandler(programs programCatalog, cohorts cohortCatalog) *ProgramHandler {
	return &ProgramHandler{programs: programs, cohorts: cohorts}
}

func (h *ProgramHandler) ListPrograms(c *fiber.Ctx) error {
	auth, ok := actorFromLocals(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	programs, total, err := h.programs.ListPublished(c.Context(), auth.OrgID, limit, (page-1)*limit)
	if err != nil {
		return mapEnrollmentError(c, err)
	}

	return c.JSON(fiber.Map{
		"programs":   newProgramResponses(programs),
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *ProgramHandler) GetProgram(c *fiber.Ctx) error {
	auth, ok := actorFromLocals(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	program, err := h.lookupOrgProgram(c, auth.OrgID)
	if err != nil {
		return mapEnrollmentError(c, err)
	}

	return c.JSON(fiber.Map{"program": newProgramResponse(program)})
}

func (h *ProgramHandler) ListCohorts(c *fiber.Ctx) error {
	auth, ok := actorFromLocals(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	program, err := h.lookupOrgProgram(c, auth.OrgID)
	if err != nil {
		return mapEnrollmentError(c, err)
	}

	cohorts, err := h.cohorts.ListByProgram(c.Context(), program.ID)
	if err != nil {
		return mapEnrollmentError(c, err)
	}

	return c.JSON(fiber.Map{"cohorts": newCohortResponses(cohorts)})
}

func (h *ProgramHandler) lookupOrgProgram(c *fiber.Ctx, orgID string) (*models.Program, error) {
	programID := c.Params("id")
	if programID == "" {
		return nil, pgx.ErrNoRows
	}

	program, err := h.programs.GetByID(c.Context(), programID)
	if err != nil {
		return nil, err
	}
	if program.OrgID != orgID || !program.Published {
		return nil, pgx.ErrNoRows
	}
	return program, nil
}

func newProgramResponse(program *models.Program) *programResponse {
	if program == nil {
		return nil
	}
	return &programResponse{
		ID:                   program.ID,
		Name:                 program.Name,
		Type:                 program.Type,
		PriceInCents:         program.PriceInCents,
		Currency:             program.Currency,
		LengthDays:           program.LengthDays,
		IsSubscription:       program.IsSubscription,
		DefaultStartDate:     program.DefaultStartDate,
		AllowCustomStartDate: program.AllowCustomStartDate,
	}
}

func newProgramResponses(programs []models.Program) []programResponse {
	if len(programs) == 0 {
		return []programResponse{}
	}
	responses := make([]programResponse, 0, len(programs))
	for i := range programs {
		responses = append(responses, *newProgramResponse(&programs[i]))
	}
	return responses
}

func newCohortResponses(cohorts []models.ProgramCohort) []cohortResponse {
	if len(cohorts) == 0 {
		return []cohortResponse{}
	}
	responses := make([]cohortResponse, 0, len(cohorts))
	for i := range cohorts {
		cohort := cohorts[i]
		responses = append(responses, cohortResponse{
			ID:                cohort.ID,
			StartDate:         cohort.StartDate,
			EnrollmentOpen:    cohort.EnrollmentOpen,
			MaxEnrollment:     cohort.MaxEnrollment,
			CurrentEnrollment: cohort.CurrentEnrollment,
		})
	}
	return responses
}
