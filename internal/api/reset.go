package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"designer-onboarding/internal/common/auth"
	"designer-onboarding/internal/common/logger"
	"designer-onboarding/internal/common/validation"

	"github.com/labstack/echo/v4"
)

var resetPasswordSchema = validation.MustCompile(validation.ResetPasswordSchema)

// PasswordResetService redeems the reset links sent with approval emails.
type PasswordResetService interface {
	Redeem(ctx context.Context, token, password string) (*auth.ResetClaims, error)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type ResetHandler struct {
	resets PasswordResetService
	logger logger.Logger
}

func NewResetHandler(resets PasswordResetService, log logger.Logger) *ResetHandler {
	return &ResetHandler{resets: resets, logger: log}
}

// ResetPassword handles POST /auth/reset-password. The storefront page the
// link points at posts the token here along with the chosen password.
func (h *ResetHandler) ResetPassword(c echo.Context) error {
	log := requestLogger(c, h.logger)

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Failed to read request body"})
	}

	if result := resetPasswordSchema.ValidateJSON(body); !result.Valid {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "Invalid reset request",
			"details": result.Details(),
		})
	}

	var req resetPasswordRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body", "details": err.Error()})
	}

	claims, err := h.resets.Redeem(c.Request().Context(), req.Token, req.Password)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Password reset completed", map[string]interface{}{"userId": claims.Subject})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password updated"})
}
