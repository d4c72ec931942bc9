package utils

import "github.com/gofiber/fiber/v2"

// Detail is the body shape for every error response. Successful responses
// return their resource representations directly.
type Detail struct {
	Detail string `json:"detail"`
}

// SendDetail sends an error JSON response with the given status code.
func SendDetail(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(Detail{Detail: message})
}
