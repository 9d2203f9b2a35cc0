package handlers

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"streamshare/api-gateway/middleware"
	"streamshare/api-gateway/utils"
	"streamshare/internal/pipeline"
	"streamshare/models"
)

var validate = validator.New()

// ListVideosQuery is the query string accepted by ListVideos.
type ListVideosQuery struct {
	Mine string `query:"mine" validate:"omitempty,oneof=true false 1 0"`
}

// VideoListResponse is returned by ListVideos.
type VideoListResponse struct {
	Status string               `json:"status" example:"success"`
	Data   []models.VideoRecord `json:"data"`
}

// VideoResponse is returned by GetVideo.
type VideoResponse struct {
	Status string             `json:"status" example:"success"`
	Data   models.VideoRecord `json:"data"`
}

// ListVideos godoc
// @Summary List videos
// @Description Returns up to 50 videos, newest first. Anonymous callers see public videos; signed-in callers also see their own. With mine=true only the caller's videos are returned.
// @Tags videos
// @Produce  json
// @Security BearerAuth
// @Param   mine query bool false "Only the caller's videos"
// @Success 200 {object} VideoListResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse "mine=true without a token"
// @Router /videos [get]
func (h *ApplicationHandler) ListVideos(c *fiber.Ctx) error {
	q := new(ListVideosQuery)
	if err := c.QueryParser(q); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid query string")
	}
	if err := validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Validation failed",
			"errors":  utils.FormatValidationErrors(err),
		})
	}
	mine, _ := strconv.ParseBool(q.Mine)

	videos, err := h.Videos.ListVideos(c.UserContext(), middleware.Identity(c), pipeline.ListOptions{Mine: mine})
	if err != nil {
		return utils.RespondWithStatusError(c, err)
	}
	h.Logger.WithFields(logrus.Fields{"count": len(videos), "mine": mine}).Debug("Listed videos")
	return utils.RespondWithJSON(c, fiber.StatusOK, videos)
}

// GetVideo godoc
// @Summary Get a video
// @Description Returns one video record. Private videos are only visible to their owner.
// @Tags videos
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "Video ID"
// @Success 200 {object} VideoResponse
// @Failure 404 {object} utils.ErrorResponse "Video not found"
// @Failure 500 {object} utils.ErrorResponse
// @Router /videos/{id} [get]
func (h *ApplicationHandler) GetVideo(c *fiber.Ctx) error {
	video, err := h.Videos.GetVideo(c.UserContext(), middleware.Identity(c), c.Params("id"))
	if err != nil {
		return utils.RespondWithStatusError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, video)
}
