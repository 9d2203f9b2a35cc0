package handlers

import (
	"github.com/gofiber/fiber/v2"

	"streamshare/api-gateway/middleware"
	"streamshare/api-gateway/utils"
)

// EnsureProfile godoc
// @Summary Create or refresh the caller's profile
// @Tags users
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /users/me [post]
func (h *ApplicationHandler) EnsureProfile(c *fiber.Ctx) error {
	profile, err := h.Users.EnsureProfile(c.UserContext(), middleware.Identity(c))
	if err != nil {
		return utils.RespondWithStatusError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, profile)
}

// Health reports gateway liveness.
func Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"message": "API Gateway is healthy",
	})
}
