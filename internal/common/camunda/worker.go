package camunda

import (
	"context"
	"time"

	"designer-onboarding/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// JobHandler completes, fails or throws every job it receives.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// WorkerOptions configures one job subscription.
type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// NewWorker opens a job worker for opts.TaskType on client.
func NewWorker(client zbc.Client, opts WorkerOptions, handler JobHandler, logger *zap.Logger) *CamundaWorker {
	cmd := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(func(jc worker.JobClient, job entities.Job) {
			active := metrics.WorkerJobsActive.WithLabelValues(opts.TaskType)
			active.Inc()
			defer active.Dec()
			handler.Handle(jc, job)
		}).
		MaxJobsActive(opts.MaxJobsActive)
	if opts.Timeout > 0 {
		cmd = cmd.Timeout(opts.Timeout)
	}

	w := &CamundaWorker{
		worker:   cmd.Open(),
		logger:   logger,
		taskType: opts.TaskType,
	}
	logger.Info("worker started", zap.String("taskType", opts.TaskType), zap.Int("maxJobsActive", opts.MaxJobsActive))
	return w
}

// Stop closes the subscription and waits for in-flight jobs. The shared
// client stays open.
func (w *CamundaWorker) Stop(_ context.Context) {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
	w.worker.AwaitClose()
}
