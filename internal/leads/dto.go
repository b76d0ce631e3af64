package leads

import "time"

type CreateLeadRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Phone       string  `json:"phone" validate:"required,max=30"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Source      string  `json:"source" validate:"max=100"`
	ServiceType string  `json:"service_type" validate:"max=100"`
	AssignedTo  *int64  `json:"assigned_to,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type UpdateLeadRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Source      *string `json:"source,omitempty" validate:"omitempty,max=100"`
	ServiceType *string `json:"service_type,omitempty" validate:"omitempty,max=100"`
	AssignedTo  *int64  `json:"assigned_to,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type MarkLostRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type ListLeadsRequest struct {
	CompanyID  int64
	Status     *Status
	AssignedTo *int64
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}
