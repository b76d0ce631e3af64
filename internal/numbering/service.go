package numbering

import (
	"context"
	"fmt"
	"time"
)

// Service issues document numbers.
type Service struct {
	repo     Repository
	profiles map[DocType]Profile
	now      func() time.Time
}

// NewService builds a Service with the default numbering profiles.
func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		profiles: DefaultProfiles(),
		now:      time.Now,
	}
}

// GenerateNext returns the next formatted document number for a company and
// document type. Sequences with yearly reset are keyed by the current year,
// so the first call in a new year starts again at 1.
func (s *Service) GenerateNext(ctx context.Context, companyID int64, docType DocType) (string, error) {
	profile, ok := s.profiles[docType]
	if !ok {
		return "", fmt.Errorf("numbering: unknown doc type %q", docType)
	}

	year := s.now().Year()
	seqYear := year
	if !profile.YearlyReset {
		seqYear = 0
	}

	number, err := s.repo.NextNumber(ctx, companyID, docType, seqYear)
	if err != nil {
		return "", fmt.Errorf("numbering: next number: %w", err)
	}

	return Format(profile.Format, profile.Prefix, year, number, profile.Padding)
}
