package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quotient-crm/quotient/internal/shared"
)

// ErrInvalidTransition indicates an illegal status move. Callers must
// check for it; transitions never panic.
var ErrInvalidTransition = errors.New("leads: invalid status transition")

// Notifier receives lead lifecycle events. Transport is owned by the
// implementation, not this service.
type Notifier interface {
	LeadCreated(ctx context.Context, lead Lead)
	LeadWon(ctx context.Context, lead Lead)
	LeadLost(ctx context.Context, lead Lead)
}

// Auditor records who did what.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles lead business logic.
type Service struct {
	repo     Repository
	notifier Notifier
	auditor  Auditor
	now      func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, notifier Notifier, auditor Auditor) *Service {
	return &Service{repo: repo, notifier: notifier, auditor: auditor, now: time.Now}
}

// Create stores a new lead in NEW status.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateLeadRequest) (*Lead, error) {
	lead := Lead{
		CompanyID:   actor.CompanyID,
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		Source:      req.Source,
		ServiceType: req.ServiceType,
		Status:      StatusNew,
		AssignedTo:  req.AssignedTo,
		Notes:       req.Notes,
		CreatedBy:   actor.UserID,
	}
	id, err := s.repo.Create(ctx, lead)
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	created, err := s.repo.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	s.notifier.LeadCreated(ctx, *created)
	s.audit(ctx, actor, "lead.created", created.ID, nil)
	return created, nil
}

// Update applies a partial update to lead contact fields.
func (s *Service) Update(ctx context.Context, actor shared.Actor, id int64, req UpdateLeadRequest) (*Lead, error) {
	lead, err := s.repo.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		lead.Name = *req.Name
	}
	if req.Phone != nil {
		lead.Phone = *req.Phone
	}
	if req.Email != nil {
		lead.Email = req.Email
	}
	if req.Source != nil {
		lead.Source = *req.Source
	}
	if req.ServiceType != nil {
		lead.ServiceType = *req.ServiceType
	}
	if req.AssignedTo != nil {
		lead.AssignedTo = req.AssignedTo
	}
	if req.Notes != nil {
		lead.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, *lead); err != nil {
		return nil, fmt.Errorf("update lead: %w", err)
	}
	return s.repo.Get(ctx, actor.CompanyID, id)
}

// RecordContact bumps the contact counters. Used for multi-rep collision
// detection: a rep can see another rep reached the lead recently.
func (s *Service) RecordContact(ctx context.Context, actor shared.Actor, id int64) (*Lead, error) {
	lead, err := s.repo.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	lead.ContactCount++
	lead.LastContactedAt = &now
	if lead.Status == StatusNew {
		lead.Status = StatusContacted
	}
	if err := s.repo.Update(ctx, *lead); err != nil {
		return nil, fmt.Errorf("record contact: %w", err)
	}
	return s.repo.Get(ctx, actor.CompanyID, id)
}

// RecordQuote bumps the quote counters and moves the lead to QUOTED.
func (s *Service) RecordQuote(ctx context.Context, actor shared.Actor, id int64) (*Lead, error) {
	lead, err := s.repo.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	lead.QuoteCount++
	lead.LastQuotedAt = &now
	if lead.Status == StatusNew || lead.Status == StatusContacted {
		lead.Status = StatusQuoted
	}
	if err := s.repo.Update(ctx, *lead); err != nil {
		return nil, fmt.Errorf("record quote: %w", err)
	}
	return s.repo.Get(ctx, actor.CompanyID, id)
}

// MarkAsContacted moves a lead to CONTACTED.
func (s *Service) MarkAsContacted(ctx context.Context, actor shared.Actor, id int64) (*Lead, error) {
	return s.transition(ctx, actor, id, StatusContacted, nil)
}

// MarkAsQuoted moves a lead to QUOTED.
func (s *Service) MarkAsQuoted(ctx context.Context, actor shared.Actor, id int64) (*Lead, error) {
	return s.transition(ctx, actor, id, StatusQuoted, nil)
}

// MarkAsWon moves a lead to WON and stamps converted_at.
func (s *Service) MarkAsWon(ctx context.Context, actor shared.Actor, id int64) (*Lead, error) {
	lead, err := s.transition(ctx, actor, id, StatusWon, nil)
	if err != nil {
		return nil, err
	}
	s.notifier.LeadWon(ctx, *lead)
	return lead, nil
}

// MarkAsLost moves a lead to LOST. A reason is mandatory.
func (s *Service) MarkAsLost(ctx context.Context, actor shared.Actor, id int64, reason string) (*Lead, error) {
	if reason == "" {
		return nil, errors.New("leads: lost reason required")
	}
	lead, err := s.transition(ctx, actor, id, StatusLost, &reason)
	if err != nil {
		return nil, err
	}
	s.notifier.LeadLost(ctx, *lead)
	return lead, nil
}

func (s *Service) transition(ctx context.Context, actor shared.Actor, id int64, to Status, lostReason *string) (*Lead, error) {
	lead, err := s.repo.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(lead.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, lead.Status, to)
	}

	from := lead.Status
	lead.Status = to
	switch to {
	case StatusWon:
		now := s.now()
		lead.ConvertedAt = &now
		lead.LostReason = nil
	case StatusLost:
		lead.LostReason = lostReason
	default:
		// Re-engaging a LOST lead clears the reason.
		lead.LostReason = nil
	}

	if err := s.repo.Update(ctx, *lead); err != nil {
		return nil, fmt.Errorf("transition lead: %w", err)
	}
	s.audit(ctx, actor, "lead.status_changed", lead.ID, map[string]any{"from": from, "to": to})
	return s.repo.Get(ctx, actor.CompanyID, id)
}

// Get returns one lead.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*Lead, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List returns a page of leads.
func (s *Service) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	req.Limit, req.Offset = shared.ClampPage(req.Limit, req.Offset)
	return s.repo.List(ctx, req)
}

// Delete soft-deletes a lead.
func (s *Service) Delete(ctx context.Context, actor shared.Actor, id int64) error {
	if err := s.repo.SoftDelete(ctx, actor.CompanyID, id); err != nil {
		return err
	}
	s.audit(ctx, actor, "lead.deleted", id, nil)
	return nil
}

func (s *Service) audit(ctx context.Context, actor shared.Actor, action string, leadID int64, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Record(ctx, shared.AuditLog{
		CompanyID: actor.CompanyID,
		ActorID:   actor.UserID,
		Action:    action,
		Scope:     shared.Scope{Type: shared.ScopeLead, ID: leadID},
		Meta:      meta,
	})
}
