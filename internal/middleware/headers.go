package middleware

import "github.com/gofiber/fiber/v3"

// ResponseHeaders keeps transaction data out of shared caches and frames
func ResponseHeaders() fiber.Handler {
	return func(c fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")
		c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
		c.Set(fiber.HeaderXFrameOptions, "DENY")
		c.Set(fiber.HeaderReferrerPolicy, "no-referrer")
		return c.Next()
	}
}
