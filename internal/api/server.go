package api

import (
	"context"
	"net/http"
	"time"

	"designer-onboarding/internal/common/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checker pings one dependency for /ready.
type Checker func(ctx context.Context) error

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	AdminJWTSecret string
	AdminJWTIssuer string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// Checks are run by /ready, keyed by dependency name.
	Checks map[string]Checker
	// Resets mounts POST /auth/reset-password when set.
	Resets PasswordResetService
}

// NewServer builds the echo instance with every route mounted.
func NewServer(cfg ServerConfig, service ApplicationService, log logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.Recover())
	e.Use(RequestID(log))
	e.Use(Metrics)
	e.Use(AccessLog(log))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	e.GET("/ready", readiness(cfg.Checks))

	h := NewApplicationHandler(service, log)
	guard := AdminAuth(cfg.AdminJWTSecret, cfg.AdminJWTIssuer)

	for _, prefix := range []string{"", "/api/admin"} {
		g := e.Group(prefix+"/applications", guard)
		g.PUT("/:id", h.UpdateStatus)
		g.DELETE("/:id", h.DeleteApplication)
	}

	if cfg.Resets != nil {
		e.POST("/auth/reset-password", NewResetHandler(cfg.Resets, log).ResetPassword)
	}

	return e
}

func readiness(checks map[string]Checker) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}
		return c.JSON(status, echo.Map{"status": state, "checks": results})
	}
}
