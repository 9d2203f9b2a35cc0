package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"streamshare/api-gateway/middleware"
	"streamshare/api-gateway/utils"
	"streamshare/internal/pipeline"
)

// UploadTicketResponse wraps an issued upload capability.
type UploadTicketResponse struct {
	Status string                `json:"status" example:"success"`
	Data   pipeline.UploadTicket `json:"data"`
}

// RequestUpload godoc
// @Summary Request an upload URL
// @Description Issues a signed URL allowing one PUT of the declared content type for 15 minutes. Optional metadata is applied to the video record once the upload completes.
// @Tags uploads
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   request body pipeline.UploadRequest true "File to upload"
// @Success 201 {object} UploadTicketResponse
// @Failure 400 {object} utils.ErrorResponse "Missing fileName or contentType"
// @Failure 401 {object} utils.ErrorResponse "Not signed in"
// @Failure 500 {object} utils.ErrorResponse "Signing failed"
// @Router /uploads [post]
func (h *ApplicationHandler) RequestUpload(c *fiber.Ctx) error {
	req := new(pipeline.UploadRequest)
	if err := c.BodyParser(req); err != nil {
		h.Logger.WithError(err).Warn("Error parsing upload request")
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}

	ticket, err := h.Intake.RequestUpload(c.UserContext(), middleware.Identity(c), *req)
	if err != nil {
		return utils.RespondWithStatusError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, ticket)
}
