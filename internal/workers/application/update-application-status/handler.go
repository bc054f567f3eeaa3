package updateapplicationstatus

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"designer-onboarding/internal/common/errors"
	"designer-onboarding/internal/common/logger"
	"designer-onboarding/internal/common/metrics"
	"designer-onboarding/internal/common/validation"
	"designer-onboarding/internal/provisioning"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "update-application-status"
)

var inputSchema = validation.MustCompile(validation.UpdateStatusSchema)

// StatusUpdater runs a review decision.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, input provisioning.UpdateStatusInput) (*provisioning.UpdateStatusOutput, error)
}

type Handler struct {
	config       *Config
	service      StatusUpdater
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service StatusUpdater, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			return
		}
	}

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

// parseInput validates the job variables before decoding them.
func parseInput(variables string) (*Input, error) {
	res := inputSchema.ValidateJSON([]byte(variables))
	if !res.Valid {
		return nil, errors.NewInvalidRequestError("Invalid job variables", res.Details())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidRequestError("Invalid job variables", err.Error())
	}
	if strings.TrimSpace(input.ApplicationID) == "" {
		return nil, errors.NewInvalidRequestError("Invalid job variables", "applicationId is required")
	}
	return &input, nil
}

// Execute applies the decision and summarises the result for the process.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.service.UpdateStatus(ctx, provisioning.UpdateStatusInput{
		ApplicationID: input.ApplicationID,
		Status:        input.Status,
		Notes:         input.Notes,
	})
	if err != nil {
		return nil, err
	}

	out := &Output{
		ApplicationID:     input.ApplicationID,
		Status:            string(result.Application.Status),
		Message:           result.Message,
		CredentialsIssued: result.TemporaryPassword != "" || result.PasswordResetLink != "",
		NotificationSent:  result.Notification != nil && result.Notification.Success,
		Warning:           result.Warning,
		Note:              result.Note,
	}
	if result.Brand != nil {
		out.BrandID = result.Brand.ID
	}
	if result.User != nil {
		out.UserID = result.User.ID
	}
	if result.BrandCreated != nil {
		out.BrandCreated = *result.BrandCreated
	}
	if result.UserCreated != nil {
		out.UserCreated = *result.UserCreated
	}

	h.logger.Info("application status updated", map[string]interface{}{
		"applicationId": out.ApplicationID,
		"status":        out.Status,
		"warning":       out.Warning,
	})
	return out, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}
