package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/api/dto"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/observability"
	apperrors "github.com/MANROEJR/ifs24027-pbo-p11/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as logging and error handling.
// They run before the authentication gate.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

// ErrorHandler is installed as the fiber.Config error handler for errors raised outside
// the middleware chain.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return writeError(c, logger, apperrors.ToDomainError(err))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				route := c.Path()
				if r := c.Route(); r != nil {
					route = r.Path
				}
				metrics.RecordError(route, c.Method(), domainErr.Code)
				err = writeError(c, logger, domainErr)
			}
		}()
		return c.Next()
	}
}

func writeError(c *fiber.Ctx, logger *zap.Logger, domainErr *apperrors.DomainError) error {
	if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(domainErr))
	}
	body := dto.Envelope{Status: domainErr.Status(), Message: domainErr.Message}
	if len(domainErr.Details) > 0 {
		body.Data = domainErr.Details
	}
	if err := c.Status(domainErr.HTTPStatus).JSON(body); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return nil
}
