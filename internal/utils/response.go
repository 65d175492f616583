package utils

import "github.com/gofiber/fiber/v3"

// Envelope wraps every successful response body
type Envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// SuccessResponse sends data with status 200
func SuccessResponse[T any](c fiber.Ctx, data T) error {
	return c.JSON(Envelope[T]{Success: true, Data: data})
}

// CreatedResponse sends data with status 201
func CreatedResponse[T any](c fiber.Ctx, data T) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope[T]{Success: true, Data: data})
}
