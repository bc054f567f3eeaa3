// Package api exposes the review workflow over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"designer-onboarding/internal/common/errors"
	"designer-onboarding/internal/common/logger"
	"designer-onboarding/internal/common/validation"
	"designer-onboarding/internal/provisioning"

	"github.com/labstack/echo/v4"
)

var updateStatusSchema = validation.MustCompile(validation.UpdateStatusSchema)

// ApplicationService is the review workflow behind the routes.
type ApplicationService interface {
	UpdateStatus(ctx context.Context, input provisioning.UpdateStatusInput) (*provisioning.UpdateStatusOutput, error)
	DeleteApplication(ctx context.Context, applicationID string) (*provisioning.DeleteOutput, error)
}

type updateStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

type ApplicationHandler struct {
	service ApplicationService
	logger  logger.Logger
}

func NewApplicationHandler(service ApplicationService, log logger.Logger) *ApplicationHandler {
	return &ApplicationHandler{service: service, logger: log}
}

// UpdateStatus handles PUT /applications/:id.
func (h *ApplicationHandler) UpdateStatus(c echo.Context) error {
	log := reviewerLogger(c, h.logger)
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Application ID is required"})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Failed to read request body"})
	}

	if result := updateStatusSchema.ValidateJSON(body); !result.Valid {
		log.Warn("Rejected status update", map[string]interface{}{
			"applicationId": id,
			"details":       result.Details(),
		})
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "Invalid status update",
			"details": result.Details(),
		})
	}

	var req updateStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body", "details": err.Error()})
	}

	out, err := h.service.UpdateStatus(c.Request().Context(), provisioning.UpdateStatusInput{
		ApplicationID: id,
		Status:        req.Status,
		Notes:         req.Notes,
	})
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Application status updated", map[string]interface{}{
		"applicationId": id,
		"status":        req.Status,
		"warning":       out.Warning != "",
	})
	return c.JSON(http.StatusOK, out)
}

// DeleteApplication handles DELETE /applications/:id.
func (h *ApplicationHandler) DeleteApplication(c echo.Context) error {
	log := reviewerLogger(c, h.logger)
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Application ID is required"})
	}

	out, err := h.service.DeleteApplication(c.Request().Context(), id)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("Application deleted", map[string]interface{}{
		"applicationId": id,
		"brandDeleted":  out.BrandDeleted,
	})
	return c.JSON(http.StatusOK, out)
}

// reviewerLogger is the request logger tagged with the admin AdminAuth
// accepted, so review decisions can be traced to a person.
func reviewerLogger(c echo.Context, fallback logger.Logger) logger.Logger {
	log := requestLogger(c, fallback)
	if reviewer, ok := c.Get(contextAdminID).(string); ok && reviewer != "" {
		log = log.WithFields(map[string]interface{}{"reviewerId": reviewer})
	}
	return log
}

// writeError renders err with the status its code maps to. Details are only
// echoed for client and store errors.
func writeError(c echo.Context, log logger.Logger, err error) error {
	stdErr := errors.Normalize(err)
	status := errors.HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"code":   string(stdErr.Code),
		"status": status,
	}
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error(stdErr.Message, fields)
	} else {
		log.Warn(stdErr.Message, fields)
	}

	body := echo.Map{"error": stdErr.Message}
	if stdErr.Details != "" && (status == http.StatusBadRequest || status >= http.StatusInternalServerError) {
		body["details"] = stdErr.Details
	}
	return c.JSON(status, body)
}
