package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/quotient-crm/quotient/internal/exports"
	"github.com/quotient-crm/quotient/internal/webhooks"
)

// EmailJob processes mail:send tasks.
type EmailJob struct {
	mailer *Mailer
	logger *slog.Logger
}

// NewEmailJob constructs an EmailJob.
func NewEmailJob(mailer *Mailer, logger *slog.Logger) *EmailJob {
	return &EmailJob{mailer: mailer, logger: logger}
}

// Handle sends the email described by the task payload.
func (j *EmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := j.mailer.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
		j.logger.Error("send email failed",
			slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	return nil
}

// WebhookJob processes webhook delivery and sweep tasks.
type WebhookJob struct {
	service *webhooks.Service
	logger  *slog.Logger
}

// NewWebhookJob constructs a WebhookJob.
func NewWebhookJob(service *webhooks.Service, logger *slog.Logger) *WebhookJob {
	return &WebhookJob{service: service, logger: logger}
}

// HandleDeliver attempts one delivery.
func (j *WebhookJob) HandleDeliver(ctx context.Context, t *asynq.Task) error {
	var payload WebhookDeliverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	return j.service.Attempt(ctx, payload.DeliveryID)
}

// HandleSweep re-enqueues due retries.
func (j *WebhookJob) HandleSweep(ctx context.Context, t *asynq.Task) error {
	n, err := j.service.SweepRetries(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info("webhook retries re-enqueued", slog.Int("count", n))
	}
	return nil
}

// ExportJob processes export runs and the scheduled-report sweep.
type ExportJob struct {
	service *exports.Service
	logger  *slog.Logger
}

// NewExportJob constructs an ExportJob.
func NewExportJob(service *exports.Service, logger *slog.Logger) *ExportJob {
	return &ExportJob{service: service, logger: logger}
}

// HandleRun generates one export workbook.
func (j *ExportJob) HandleRun(ctx context.Context, t *asynq.Task) error {
	var payload ExportRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	return j.service.Run(ctx, payload.ExportID)
}

// HandleSweep queues exports for due scheduled reports.
func (j *ExportJob) HandleSweep(ctx context.Context, t *asynq.Task) error {
	n, err := j.service.SweepSchedules(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info("scheduled reports queued", slog.Int("count", n))
	}
	return nil
}
