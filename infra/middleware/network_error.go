package middleware

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"network_server/pkg/apperr"
	"network_server/pkg/logger"
	"network_server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const unexpectedMessage = "An unexpected error occurred"

// ErrorHandler renders every handler error as the response envelope.
// AppErrors keep their code and details, fiber errors (404 route, 405,
// body limit) get a code derived from the status, anything else is a 500
// with a generic message.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		e := toAppError(err)
		log := logger.WithContext(c.Context()).
			WithField("error_code", e.Code).
			WithField("path", c.Path())

		switch {
		case !apperr.IsAppError(err) && !isFiberError(err):
			log.WithError(err).WithField("stack", string(debug.Stack())).Error("unexpected error")
		case e.Status >= fiber.StatusInternalServerError:
			log.WithError(e.Err).Error("%s", e.Message)
		default:
			log.Warn("%s", e.Message)
		}
		return response.ErrorWithDetails(c, e.Status, e.Code, e.Message, e.Details)
	}
}

func isFiberError(err error) bool {
	var fe *fiber.Error
	return errors.As(err, &fe)
}

func toAppError(err error) *apperr.AppError {
	if apperr.IsAppError(err) {
		return apperr.AsAppError(err)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return &apperr.AppError{Code: codeForStatus(fe.Code), Message: fe.Message, Status: fe.Code}
	}
	return &apperr.AppError{
		Code:    apperr.CodeInternalError,
		Message: unexpectedMessage,
		Status:  fiber.StatusInternalServerError,
		Err:     err,
	}
}

// RequestID reuses the caller's X-Request-ID or mints one.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(logger.RequestIDKey, requestID)
		c.Set(fiber.HeaderXRequestID, requestID)
		return c.Next()
	}
}

// RequestLogger writes one line per request after the response is final.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			// Render now so the logged status is the one the client sees.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				return herr
			}
		}

		status := c.Response().StatusCode()
		log := logger.WithContext(c.Context()).
			WithDuration(time.Since(start)).
			WithFields(map[string]any{
				"method": c.Method(),
				"path":   c.Path(),
				"status": status,
				"ip":     c.IP(),
			})

		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("%s %s -> %d", c.Method(), c.Path(), status)
		case status >= fiber.StatusBadRequest:
			log.Warn("%s %s -> %d", c.Method(), c.Path(), status)
		default:
			log.Info("%s %s -> %d", c.Method(), c.Path(), status)
		}
		return nil
	}
}

// Recover turns handler panics into a 500 envelope.
func Recover() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithContext(c.Context()).WithFields(map[string]any{
					"panic":  fmt.Sprint(r),
					"path":   c.Path(),
					"method": c.Method(),
					"stack":  string(debug.Stack()),
				}).Error("panic recovered")

				err = response.Error(c, fiber.StatusInternalServerError, apperr.CodeInternalError, unexpectedMessage)
			}
		}()
		return c.Next()
	}
}

var codesByStatus = map[int]string{
	fiber.StatusBadRequest:            apperr.CodeBadRequest,
	fiber.StatusUnauthorized:          apperr.CodeUnauthorized,
	fiber.StatusForbidden:             apperr.CodeForbidden,
	fiber.StatusNotFound:              apperr.CodeNotFound,
	fiber.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	fiber.StatusConflict:              apperr.CodeConflict,
	fiber.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	fiber.StatusTooManyRequests:       apperr.CodeRateLimited,
	fiber.StatusInternalServerError:   apperr.CodeInternalError,
	fiber.StatusBadGateway:            "SERVICE_UNAVAILABLE",
	fiber.StatusServiceUnavailable:    "SERVICE_UNAVAILABLE",
	fiber.StatusGatewayTimeout:        "SERVICE_UNAVAILABLE",
}

func codeForStatus(status int) string {
	if code, ok := codesByStatus[status]; ok {
		return code
	}
	return "UNKNOWN_ERROR"
}
