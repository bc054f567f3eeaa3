package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"designer-onboarding/internal/common/logger"
	"designer-onboarding/internal/common/metrics"
	"designer-onboarding/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	requestIDHeader = "X-Request-ID"
	contextLogger   = "logger"
	contextAdminID  = "admin_id"
)

// RequestID tags each request with an id, keeping one supplied by the caller.
func RequestID(base logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
				c.Request().Header.Set(requestIDHeader, requestID)
			}
			c.Response().Header().Set(requestIDHeader, requestID)

			c.Set("request_id", requestID)
			c.Set(contextLogger, base.WithFields(map[string]interface{}{"request_id": requestID}))

			return next(c)
		}
	}
}

// requestLogger returns the logger RequestID stored on c, or fallback.
func requestLogger(c echo.Context, fallback logger.Logger) logger.Logger {
	if log, ok := c.Get(contextLogger).(logger.Logger); ok {
		return log
	}
	return fallback
}

// AccessLog writes one line per request once the handler returns.
func AccessLog(base logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			requestLogger(c, base).Info("HTTP request", map[string]interface{}{
				"method":     c.Request().Method,
				"route":      c.Path(),
				"status":     c.Response().Status,
				"durationMs": time.Since(start).Milliseconds(),
			})
			return nil
		}
	}
}

// Metrics records request count, latency and in-flight requests.
func Metrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()
		err := next(c)

		method := c.Request().Method
		route := c.Path()
		metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

		return err
	}
}

// AdminClaims is the payload of an admin console bearer token.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth requires an HS256 bearer token carrying a staff role. An empty
// secret disables the check.
func AdminAuth(secret, issuer string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if secret == "" {
			return next
		}

		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
		if issuer != "" {
			opts = append(opts, jwt.WithIssuer(issuer))
		}
		parser := jwt.NewParser(opts...)

		return func(c echo.Context) error {
			log := requestLogger(c, logger.NewNoOpLogger())

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing Authorization header", nil)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format", nil)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims := &AdminClaims{}
			_, err := parser.ParseWithClaims(parts[1], claims, func(*jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil {
				log.Warn("Invalid admin token", map[string]interface{}{"error": err.Error()})
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			role, err := models.ParseProfileRole(claims.Role)
			if err != nil || !role.IsStaff() {
				log.Warn("Token lacks an admin role", map[string]interface{}{"role": claims.Role})
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin role required"})
			}

			c.Set(contextAdminID, claims.Subject)
			return next(c)
		}
	}
}
