package utils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
)

// Codes carried in the "code" field of error bodies
const (
	CodeBadRequest = "BAD_REQUEST"
	CodeNotFound   = "NOT_FOUND"
	CodeSourceRead = "SOURCE_READ_ERROR"
	CodeParse      = "PARSE_ERROR"
	CodeHTTP       = "HTTP_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
)

// APIError is the body of every failed request.
// Source and Row point at the file and line that stopped an upload.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Source     string `json:"source,omitempty"`
	Row        int    `json:"row,omitempty"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewBadRequestError(message string, details any) *APIError {
	return &APIError{
		StatusCode: fiber.StatusBadRequest,
		Code:       CodeBadRequest,
		Message:    message,
		Details:    details,
	}
}

// NewIngestError reports an upload that arrived but could not be ingested.
// row is 0 when the failure is not tied to a line.
func NewIngestError(code, source string, row int, err error) *APIError {
	return &APIError{
		StatusCode: fiber.StatusUnprocessableEntity,
		Code:       code,
		Message:    err.Error(),
		Source:     source,
		Row:        row,
	}
}

func NewNotFoundError(resource string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusNotFound,
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
	}
}

func NewInternalError(err error) *APIError {
	return &APIError{
		StatusCode: fiber.StatusInternalServerError,
		Code:       CodeInternal,
		Message:    "An internal error occurred",
		Details:    err.Error(),
	}
}

// AsAPIError normalizes any handler error into an APIError
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &APIError{
			StatusCode: fiberErr.Code,
			Code:       CodeHTTP,
			Message:    fiberErr.Message,
		}
	}

	return NewInternalError(err)
}

// ErrorHandler is the fiber error handler that renders APIError bodies
func ErrorHandler(c fiber.Ctx, err error) error {
	apiErr := AsAPIError(err)
	return c.Status(apiErr.StatusCode).JSON(apiErr)
}
