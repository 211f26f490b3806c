package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// SuccessResponse sends data as JSON with the given status
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// ErrorResponse sends the standard error envelope
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(ErrorResponseStruct{
		Status:    status,
		Message:   message,
		Ok:        false,
		Timestamp: timestamp(),
		URL:       c.OriginalURL(),
		Type:      errorType,
	})
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, message, fiber.StatusNotFound, "not_found")
}

// MutationSuccessResponse reports a completed change and the number of
// documents or rows it touched.
func MutationSuccessResponse(c *fiber.Ctx, affected int64) error {
	return c.Status(fiber.StatusOK).JSON(SuccessResponseStruct{
		Message:  "Success",
		Ok:       true,
		Affected: affected,
		Time:     timestamp(),
	})
}

// PlainOK answers with the bare "OK" body webhook callers expect.
func PlainOK(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("OK")
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
}

// SuccessResponseStruct defines the schema for mutation success responses
type SuccessResponseStruct struct {
	Message  string `json:"message"`
	Ok       bool   `json:"ok"`
	Affected int64  `json:"affected"`
	Time     string `json:"timestamp"`
}
