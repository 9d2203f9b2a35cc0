package utils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message"`
}

// RespondWithError sends a JSON error response.
func RespondWithError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(ErrorResponse{Status: "error", Message: message})
}

// RespondWithJSON sends a JSON success response.
func RespondWithJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

// HTTPStatus maps a gRPC status code to the HTTP status returned to clients.
func HTTPStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return fiber.StatusOK
	case codes.InvalidArgument:
		return fiber.StatusBadRequest
	case codes.Unauthenticated:
		return fiber.StatusUnauthorized
	case codes.PermissionDenied:
		return fiber.StatusForbidden
	case codes.NotFound:
		return fiber.StatusNotFound
	case codes.Unavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithStatusError writes err using its gRPC status code. Errors
// without a status are reported as internal.
func RespondWithStatusError(c *fiber.Ctx, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return RespondWithError(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return RespondWithError(c, HTTPStatus(st.Code()), st.Message())
}

// FormatValidationErrors formats validation errors from validator/v10.
func FormatValidationErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		element := fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		if e.Param() != "" {
			element = fmt.Sprintf("%s (value: %s)", element, e.Param())
		}
		out = append(out, element)
	}
	return out
}
