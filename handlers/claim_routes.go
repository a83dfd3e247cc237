// handlers/claim_routes.go
package handlers

import (
	"strconv"

	"event-reward-system/middleware"
	"event-reward-system/models"
	"event-reward-system/services"
	"event-reward-system/store"

	"github.com/gofiber/fiber/v2"
)

// SetupClaimRoutes wires the claim engine's HTTP surface. The gateway has
// already authenticated the caller; these routes only consume the forwarded
// identity headers.
func SetupClaimRoutes(app *fiber.App, claimService *services.ClaimService) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/events/:eventId/claim", func(c *fiber.Ctx) error {
		user := middleware.UserFromCtx(c)

		claim, err := claimService.SubmitClaim(c.UserContext(), c.Params("eventId"), user.ID, user)
		if err != nil {
			return writeClaimError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(claim)
	})

	secured.Get("/claims/me", func(c *fiber.Ctx) error {
		user := middleware.UserFromCtx(c)

		result, err := claimService.ListUserClaims(c.UserContext(), user.ID, listQueryFromRequest(c))
		if err != nil {
			return writeClaimError(c, err)
		}
		return c.JSON(result)
	})

	admin := app.Group("/s/admin",
		middleware.UserContextMiddleware(),
		middleware.RequireRoles(models.RoleAdmin, models.RoleOperator, models.RoleAuditor),
	)

	admin.Get("/claims", func(c *fiber.Ctx) error {
		q := listQueryFromRequest(c)
		q.UserID = c.Query("user_id")

		result, err := claimService.ListEventClaims(c.UserContext(), q)
		if err != nil {
			return writeClaimError(c, err)
		}
		return c.JSON(result)
	})
}

func listQueryFromRequest(c *fiber.Ctx) store.ListQuery {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	return store.ListQuery{
		EventID: c.Query("event_id"),
		Status:  models.ClaimStatus(c.Query("status")),
		Page:    page,
		Limit:   limit,
	}
}

func writeClaimError(c *fiber.Ctx, err error) error {
	ce := services.AsClaimError(err)
	return c.Status(statusForKind(ce.Kind)).JSON(fiber.Map{"error": ce.Message})
}

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindInvalidArgument, services.KindInvalidState:
		return fiber.StatusBadRequest
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindAlreadyApproved, services.KindInProgress:
		return fiber.StatusConflict
	case services.KindVerificationUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
