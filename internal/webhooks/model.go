package webhooks

import (
	"encoding/json"
	"time"
)

// DeliveryStatus tracks one delivery through its retry lifecycle.
type DeliveryStatus string

const (
	DeliveryPending  DeliveryStatus = "pending"
	DeliverySent     DeliveryStatus = "sent"
	DeliveryRetrying DeliveryStatus = "retrying"
	DeliveryFailed   DeliveryStatus = "failed"
)

// Endpoint is a subscriber URL with its signing secret and retry policy.
type Endpoint struct {
	ID             int64     `json:"id"`
	CompanyID      int64     `json:"company_id"`
	Name           string    `json:"name"`
	URL            string    `json:"url"`
	Secret         string    `json:"-"`
	Events         []string  `json:"events"`
	Active         bool      `json:"active"`
	MaxRetries     int       `json:"max_retries"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	SuccessCount   int64     `json:"success_count"`
	FailureCount   int64     `json:"failure_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SubscribedTo reports whether the endpoint wants the event.
func (e *Endpoint) SubscribedTo(event string) bool {
	for _, ev := range e.Events {
		if ev == event || ev == "*" {
			return true
		}
	}
	return false
}

// Timeout returns the per-endpoint HTTP timeout, bounded to [1s, 30s].
func (e *Endpoint) Timeout() time.Duration {
	seconds := e.TimeoutSeconds
	if seconds <= 0 {
		seconds = 10
	}
	if seconds > 30 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}

// Delivery is one webhook payload headed for one endpoint.
type Delivery struct {
	ID             int64           `json:"id"`
	EndpointID     int64           `json:"endpoint_id"`
	CompanyID      int64           `json:"company_id"`
	Event          string          `json:"event"`
	Payload        json.RawMessage `json:"payload"`
	Status         DeliveryStatus  `json:"status"`
	Attempts       int             `json:"attempts"`
	LastStatusCode *int            `json:"last_status_code,omitempty"`
	ResponseBody   *string         `json:"response_body,omitempty"`
	NextRetryAt    *time.Time      `json:"next_retry_at,omitempty"`
	SentAt         *time.Time      `json:"sent_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// payloadEnvelope is the wire format posted to endpoints.
type payloadEnvelope struct {
	Event       string    `json:"event"`
	Data        any       `json:"data"`
	DeliveredAt time.Time `json:"delivered_at"`
}
