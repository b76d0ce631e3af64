package webhooks

type CreateEndpointRequest struct {
	Name           string   `json:"name" validate:"required,max=100"`
	URL            string   `json:"url" validate:"required,url,max=500"`
	Secret         string   `json:"secret" validate:"required,min=16,max=200"`
	Events         []string `json:"events" validate:"required,min=1,dive,max=100"`
	Active         bool     `json:"active"`
	MaxRetries     int      `json:"max_retries" validate:"gte=0,lte=10"`
	TimeoutSeconds int      `json:"timeout_seconds" validate:"gte=0,lte=30"`
}

type UpdateEndpointRequest struct {
	Name           *string  `json:"name,omitempty" validate:"omitempty,max=100"`
	URL            *string  `json:"url,omitempty" validate:"omitempty,url,max=500"`
	Events         []string `json:"events,omitempty" validate:"omitempty,min=1,dive,max=100"`
	Active         *bool    `json:"active,omitempty"`
	MaxRetries     *int     `json:"max_retries,omitempty" validate:"omitempty,gte=0,lte=10"`
	TimeoutSeconds *int     `json:"timeout_seconds,omitempty" validate:"omitempty,gte=0,lte=30"`
}
