package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/xmrchart/internal/logging"
	"github.com/soltixdb/xmrchart/internal/models"
	"github.com/soltixdb/xmrchart/internal/services"
)

// Error codes produced by the HTTP layer itself
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotFound         = "NOT_FOUND"
	CodeError            = "ERROR"
)

// StatusForCode maps a service error code to an HTTP status
func StatusForCode(code string) int {
	switch code {
	case services.CodeInvalidInput, services.CodeInvalidOptions, CodeValidationFailed:
		return fiber.StatusBadRequest
	case services.CodeSourceNotFound, CodeNotFound:
		return fiber.StatusNotFound
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler returns the application error handler. Service and validation
// errors keep their codes; anything else is reported by HTTP status.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		detail := models.ErrorDetail{
			Code:    CodeError,
			Message: "Internal Server Error",
			Path:    c.Path(),
		}

		var fe *fiber.Error
		var ve *ValidationError
		if se, ok := services.AsServiceError(err); ok {
			status = StatusForCode(se.Code)
			detail.Code = se.Code
			detail.Message = se.Message
			detail.Details = se.Details
		} else if errors.As(err, &ve) {
			status = fiber.StatusBadRequest
			detail.Code = CodeValidationFailed
			detail.Message = ve.Error()
			detail.Details = map[string]interface{}{"errors": ve.Fields}
		} else if errors.As(err, &fe) {
			status = fe.Code
			detail.Message = fe.Message
			if fe.Code == fiber.StatusNotFound {
				detail.Code = CodeNotFound
			}
		}

		fields := []interface{}{
			"path", c.Path(),
			"method", c.Method(),
			"status", status,
			"code", detail.Code,
			"error", err,
		}
		if status >= fiber.StatusInternalServerError {
			logger.WithContext(c.UserContext()).Error("Request error", fields...)
		} else {
			logger.WithContext(c.UserContext()).Debug("Request rejected", fields...)
		}

		return c.Status(status).JSON(models.ErrorResponse{Error: detail})
	}
}

// NotFound answers unmatched routes
func NotFound(c *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusNotFound, "Route "+c.Method()+" "+c.Path()+" not found")
}
