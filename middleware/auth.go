// middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"event-reward-system/models"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the verified identity the Gateway forwards in
// the x-user-id / x-user-email / x-user-role headers. Secured routes (under
// /s/) require at least x-user-id.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("x-user-id")
		email := c.Get("x-user-email")
		role := c.Get("x-user-role")

		isSecured := strings.HasPrefix(c.Path(), "/s/")
		if isSecured && userID == "" {
			log.Printf("❌ [USER_CTX] x-user-id required but missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing x-user-id — request must come through gateway with auth context",
			})
		}

		c.Locals("user_id", userID)
		c.Locals("user_email", email)
		c.Locals("user_role", role)

		return c.Next()
	}
}

// RequireRoles rejects requests whose forwarded role is not in the allow list.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		log.Printf("🚫 [USER_CTX] role %q denied for %s", role, c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "insufficient role for this resource",
		})
	}
}

// UserFromCtx returns the identity attached by UserContextMiddleware.
func UserFromCtx(c *fiber.Ctx) models.UserIdentity {
	id, _ := c.Locals("user_id").(string)
	email, _ := c.Locals("user_email").(string)
	role, _ := c.Locals("user_role").(string)
	return models.UserIdentity{ID: id, Email: email, Role: role}
}
