package handlers

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts the session API under the given router
func RegisterRoutes(router fiber.Router, sessions *SessionHandler, uploads *UploadHandler) {
	router.Post("/sessions", sessions.CreateSession)
	router.Get("/sessions/:id", sessions.GetSession)
	router.Delete("/sessions/:id", sessions.DeleteSession)
	router.Get("/sessions/:id/insights", sessions.GetInsights)
	router.Post("/sessions/:id/reset", sessions.ResetSession)
	router.Post("/sessions/:id/uploads", uploads.UploadSources)
}
