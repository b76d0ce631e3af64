package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskTypeSendEmail sends one transactional email.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeWebhookDeliver attempts one webhook delivery.
	TaskTypeWebhookDeliver = "webhook:deliver"
	// TaskTypeWebhookSweep re-enqueues due webhook retries.
	TaskTypeWebhookSweep = "webhook:sweep"
	// TaskTypeExportRun generates one export workbook.
	TaskTypeExportRun = "export:run"
	// TaskTypeReportSweep queues exports for due scheduled reports.
	TaskTypeReportSweep = "report:sweep"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// WebhookDeliverPayload identifies the delivery to attempt.
type WebhookDeliverPayload struct {
	DeliveryID int64 `json:"delivery_id"`
}

// ExportRunPayload identifies the export job to run.
type ExportRunPayload struct {
	ExportID int64 `json:"export_id"`
}

// NewSendEmailTask constructs a send-email task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewWebhookDeliverTask constructs a webhook delivery task.
func NewWebhookDeliverTask(deliveryID int64) (*asynq.Task, error) {
	data, err := json.Marshal(WebhookDeliverPayload{DeliveryID: deliveryID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWebhookDeliver, data), nil
}

// NewWebhookSweepTask constructs the retry-sweep cron task.
func NewWebhookSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeWebhookSweep, nil)
}

// NewExportRunTask constructs an export-run task.
func NewExportRunTask(exportID int64) (*asynq.Task, error) {
	data, err := json.Marshal(ExportRunPayload{ExportID: exportID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeExportRun, data), nil
}

// NewReportSweepTask constructs the scheduled-report sweep cron task.
func NewReportSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeReportSweep, nil)
}
