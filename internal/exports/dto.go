package exports

import "time"

// CreateExportRequest asks for a one-off export.
type CreateExportRequest struct {
	ReportType string     `json:"report_type" validate:"required,oneof=leads quotations invoices payments aging"`
	DateFrom   *time.Time `json:"date_from,omitempty"`
	DateTo     *time.Time `json:"date_to,omitempty"`
}

// CreateScheduleRequest registers a recurring report.
type CreateScheduleRequest struct {
	ReportType string `json:"report_type" validate:"required,oneof=leads quotations invoices payments aging"`
	Frequency  string `json:"frequency" validate:"required,oneof=daily weekly monthly"`
}
