package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/atlas-vision/backend/utils/log"
)

// NewRouter builds the echo instance serving the public API. wsChat may be nil.
func NewRouter(h *LandmarkHandler, wsChat echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			ctx := log.WithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				status := v.Status
				var he *echo.HTTPError
				if errors.As(v.Error, &he) {
					status = he.Code
				}
				logger := log.With(append(fields, zap.Error(v.Error))...)
				if status >= http.StatusInternalServerError {
					logger.Error("Request failed")
				} else {
					logger.Warn("Request rejected")
				}
				return nil
			}
			log.With(fields...).Info("Request served")
			return nil
		},
	}))

	// The API is public and carries no credentials of its own.
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.POST, echo.PUT, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{"*"},
		MaxAge:       86400,
	}))
	// The analyze route bounds its own read so oversized images still get
	// the not-found answer instead of a 413.
	limit := middleware.BodyLimit(MaxRequestSize)

	e.GET("/health", h.HealthCheck)
	e.POST("/analyze-landmark", h.AnalyzeLandmark)
	e.POST("/chat", h.Chat, limit)
	e.POST("/chat/voice", h.VoiceChat, limit)
	e.POST("/narrate", h.Narrate, limit)
	if wsChat != nil {
		e.GET("/ws/chat", wsChat)
	}

	return e
}
