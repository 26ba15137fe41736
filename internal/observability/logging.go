package observability

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/config"
)

// HeaderRequestID carries the correlation id of a request.
const HeaderRequestID = "X-Request-ID"

// NewLogger creates a structured zap.Logger configured via env settings.
func NewLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: level == zapcore.DebugLevel,
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:  "message",
			LevelKey:    "level",
			TimeKey:     "ts",
			NameKey:     "logger",
			EncodeLevel: zapcore.LowercaseLevelEncoder,
			EncodeTime:  zapcore.ISO8601TimeEncoder,
			EncodeName:  zapcore.FullNameEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapCfg.Build()
}

// RequestLogger logs one line per request and feeds the request metrics. It reuses an
// incoming X-Request-ID or assigns a new one.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(HeaderRequestID, requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		duration := time.Since(start)
		route := routeLabel(c)
		metrics.RecordRequest(route, c.Method(), status, duration)

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
		return err
	}
}

// LogStartup writes the startup banner.
func LogStartup(logger *zap.Logger, cfg *config.Config) {
	logger.Info("starting service",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.String("addr", cfg.App.Addr()),
		zap.String("registry_backend", cfg.Auth.RegistryBackend),
		zap.Duration("token_ttl", cfg.Auth.TokenTTL()),
	)
}

// routeLabel keeps metric cardinality bounded by preferring the matched route pattern.
func routeLabel(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" && r.Path != "/" {
		return r.Path
	}
	return "unmatched"
}
