package leads

import "time"

// Status is the lead funnel state.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusContacted Status = "CONTACTED"
	StatusQuoted    Status = "QUOTED"
	StatusWon       Status = "WON"
	StatusLost      Status = "LOST"
)

// transitions is the adjacency list of legal status moves.
var transitions = map[Status][]Status{
	StatusNew:       {StatusContacted, StatusQuoted, StatusLost},
	StatusContacted: {StatusQuoted, StatusWon, StatusLost},
	StatusQuoted:    {StatusWon, StatusLost},
	StatusWon:       {},
	StatusLost:      {StatusContacted},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Lead is a top-of-funnel prospect. Soft-deleted, never hard-deleted.
type Lead struct {
	ID              int64      `json:"id"`
	CompanyID       int64      `json:"company_id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Email           *string    `json:"email,omitempty"`
	Source          string     `json:"source"`
	ServiceType     string     `json:"service_type"`
	Status          Status     `json:"status"`
	AssignedTo      *int64     `json:"assigned_to,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	LostReason      *string    `json:"lost_reason,omitempty"`
	ContactCount    int        `json:"contact_count"`
	QuoteCount      int        `json:"quote_count"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`
	LastQuotedAt    *time.Time `json:"last_quoted_at,omitempty"`
	ConvertedAt     *time.Time `json:"converted_at,omitempty"`
	CreatedBy       int64      `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}
