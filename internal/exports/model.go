package exports

import "time"

// ExportStatus tracks an async export job.
type ExportStatus string

const (
	ExportPending   ExportStatus = "pending"
	ExportRunning   ExportStatus = "running"
	ExportCompleted ExportStatus = "completed"
	ExportFailed    ExportStatus = "failed"
)

// ReportType selects the dataset an export covers.
type ReportType string

const (
	ReportLeads      ReportType = "leads"
	ReportQuotations ReportType = "quotations"
	ReportInvoices   ReportType = "invoices"
	ReportPayments   ReportType = "payments"
	ReportAging      ReportType = "aging"
)

// Frequency is how often a scheduled report recurs.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Export is one async export job and its outcome.
type Export struct {
	ID          int64        `json:"id"`
	CompanyID   int64        `json:"company_id"`
	ReportType  ReportType   `json:"report_type"`
	Status      ExportStatus `json:"status"`
	DateFrom    *time.Time   `json:"date_from,omitempty"`
	DateTo      *time.Time   `json:"date_to,omitempty"`
	FilePath    *string      `json:"file_path,omitempty"`
	FileURL     string       `json:"file_url,omitempty"`
	RowCount    *int         `json:"row_count,omitempty"`
	Error       *string      `json:"error,omitempty"`
	RequestedBy int64        `json:"requested_by"`
	CreatedAt   time.Time    `json:"created_at"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// ScheduledReport recurs on a frequency; the sweep claims due rows.
type ScheduledReport struct {
	ID         int64      `json:"id"`
	CompanyID  int64      `json:"company_id"`
	ReportType ReportType `json:"report_type"`
	Frequency  Frequency  `json:"frequency"`
	NextRunAt  time.Time  `json:"next_run_at"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	Active     bool       `json:"active"`
	CreatedBy  int64      `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NextRun advances a run time by one frequency period.
func NextRun(freq Frequency, from time.Time) time.Time {
	switch freq {
	case FrequencyDaily:
		return from.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	}
	return from.AddDate(0, 0, 1)
}
