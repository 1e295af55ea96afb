package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sfoufcat/coachhub/internal/config"
	"github.com/sfoufcat/coachhub/internal/handlers"
	"github.com/sfoufcat/coachhub/internal/middleware"
	"github.com/sfoufcat/coachhub/internal/repository"
	"github.com/sfoufcat/coachhub/internal/services"
	"go.uber.org/zap"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, logger *zap.Logger) error {
	orgRepo := repository.NewOrganizationRepository(db)
	programRepo := repository.NewProgramRepository(db)
	cohortRepo := repository.NewCohortRepository(db)
	squadRepo := repository.NewSquadRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	profileRepo := repository.NewUserProfileRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	contentRepo := repository.NewContentRepository(db)
	customerRepo := repository.NewStripeCustomerRepository(db)

	chatService, err := services.NewStreamChatService(cfg.StreamKey, cfg.StreamSecret)
	if err != nil {
		return err
	}
	directory := services.NewClerkDirectory(cfg.ClerkBaseURL, cfg.ClerkSecretKey)
	payments := services.NewStripePaymentService(cfg.StripeSecretKey)

	discountService := services.NewDiscountService(discountRepo, profileRepo)
	squadService := services.NewSquadService(db, squadRepo, directory, chatService, logger)
	coachingService := services.NewCoachingService(db, directory, chatService, logger)
	checkoutService := services.NewCheckoutService(
		payments,
		customerRepo,
		programRepo,
		squadRepo,
		contentRepo,
		cfg.CheckoutSuccessURL,
		cfg.CheckoutCancelURL,
		logger,
	)
	enrollmentService := services.NewEnrollmentService(
		db,
		orgRepo,
		programRepo,
		cohortRepo,
		enrollmentRepo,
		profileRepo,
		discountRepo,
		squadService,
		coachingService,
		discountService,
		checkoutService,
		logger,
	)

	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService)
	discountHandler := handlers.NewDiscountHandler(discountService, orgRepo, programRepo)
	programHandler := handlers.NewProgramHandler(programRepo, cohortRepo)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	programs := authProtected.Group("/programs")
	programs.Get("", programHandler.ListPrograms)
	programs.Post("/enroll", enrollmentHandler.Enroll)
	programs.Get("/:id", programHandler.GetProgram)
	programs.Get("/:id/cohorts", programHandler.ListCohorts)

	discounts := authProtected.Group("/discounts")
	discounts.Post("/validate", discountHandler.ValidateDiscount)

	checkout := authProtected.Group("/payments")
	checkout.Post("/checkout/complete", enrollmentHandler.CompleteCheckout)

	return nil
}
