package shared

import "fmt"

// ScopeType identifies the kind of record a polymorphic attachment points at.
type ScopeType string

const (
	ScopeLead       ScopeType = "lead"
	ScopeQuotation  ScopeType = "quotation"
	ScopeInvoice    ScopeType = "invoice"
	ScopeAssessment ScopeType = "assessment"
)

// Scope is a tagged reference to a lead, quotation or invoice.
type Scope struct {
	Type ScopeType `json:"scope_type"`
	ID   int64     `json:"scope_id"`
}

var knownScopes = map[ScopeType]struct{}{
	ScopeLead:       {},
	ScopeQuotation:  {},
	ScopeInvoice:    {},
	ScopeAssessment: {},
}

// ParseScope validates a raw scope type/id pair.
func ParseScope(scopeType string, id int64) (Scope, error) {
	st := ScopeType(scopeType)
	if _, ok := knownScopes[st]; !ok {
		return Scope{}, fmt.Errorf("unknown scope type %q", scopeType)
	}
	if id <= 0 {
		return Scope{}, fmt.Errorf("scope id must be positive")
	}
	return Scope{Type: st, ID: id}, nil
}

func (s Scope) String() string {
	return fmt.Sprintf("%s:%d", s.Type, s.ID)
}
