package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"streamshare/internal/auth"
)

const identityKey = "identity"

// Authenticate resolves the bearer token into an auth.Identity stored in
// the request locals. Requests without a token continue anonymously; a token
// that fails verification is rejected with 401.
func Authenticate(verifier auth.TokenVerifier, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if errors.Is(err, auth.ErrNoToken) {
			return c.Next()
		}

		id, err := verifier.Verify(c.UserContext(), token)
		if err != nil {
			log.WithError(err).Warn("Rejected bearer token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "Invalid or expired token",
			})
		}
		c.Locals(identityKey, id)
		return c.Next()
	}
}

// Identity returns the caller attached by Authenticate, or nil.
func Identity(c *fiber.Ctx) *auth.Identity {
	id, _ := c.Locals(identityKey).(*auth.Identity)
	return id
}

// UID returns the caller's uid, or "".
func UID(c *fiber.Ctx) string {
	return auth.UIDOf(Identity(c))
}
