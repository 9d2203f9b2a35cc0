package handlers

import "github.com/gofiber/fiber/v2"

// Register mounts the API routes on r, which is expected to be /api/v1.
func (h *ApplicationHandler) Register(r fiber.Router) {
	r.Post("/uploads", h.RequestUpload)
	r.Get("/videos", h.ListVideos)
	r.Get("/videos/:id", h.GetVideo)
	r.Post("/users/me", h.EnsureProfile)
}
