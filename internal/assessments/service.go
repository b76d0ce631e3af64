package assessments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/quotient-crm/quotient/internal/numbering"
	"github.com/quotient-crm/quotient/internal/quotations"
	"github.com/quotient-crm/quotient/internal/shared"
	"github.com/quotient-crm/quotient/internal/storage"
)

var (
	// ErrInvalidTransition indicates an illegal status move.
	ErrInvalidTransition = errors.New("assessments: invalid status transition")
	// ErrNotInProgress indicates a response write outside IN_PROGRESS.
	ErrNotInProgress = errors.New("assessments: assessment is not in progress")
	// ErrNotCompleted indicates quotation generation before completion.
	ErrNotCompleted = errors.New("assessments: assessment is not completed")
)

// NumberGenerator issues document numbers.
type NumberGenerator interface {
	GenerateNext(ctx context.Context, companyID int64, docType numbering.DocType) (string, error)
}

// QuotationCreator builds a draft quotation from assessment output.
type QuotationCreator interface {
	Create(ctx context.Context, actor shared.Actor, req quotations.CreateQuotationRequest) (*quotations.Quotation, error)
}

// PhotoProcessor derives thumbnails and strips EXIF data. Failures are
// non-fatal; the photo stays usable without the derived artifacts.
type PhotoProcessor interface {
	Process(ctx context.Context, path string) error
}

// Auditor records who did what.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles assessment business logic.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	numbers   NumberGenerator
	files     storage.Storage
	processor PhotoProcessor
	quotes    QuotationCreator
	auditor   Auditor
	now       func() time.Time
}

// NewService builds a Service instance. processor may be nil when no
// image pipeline is configured.
func NewService(logger *slog.Logger, repo Repository, numbers NumberGenerator, files storage.Storage, processor PhotoProcessor, quotes QuotationCreator, auditor Auditor) *Service {
	return &Service{
		logger:    logger,
		repo:      repo,
		numbers:   numbers,
		files:     files,
		processor: processor,
		quotes:    quotes,
		auditor:   auditor,
		now:       time.Now,
	}
}

// Create schedules a new assessment with its checklist.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateAssessmentRequest) (*Assessment, error) {
	docNumber, err := s.numbers.GenerateNext(ctx, actor.CompanyID, numbering.DocTypeAssessment)
	if err != nil {
		return nil, fmt.Errorf("generate doc number: %w", err)
	}

	a := Assessment{
		DocNumber:   docNumber,
		CompanyID:   actor.CompanyID,
		LeadID:      req.LeadID,
		ServiceType: req.ServiceType,
		Status:      StatusScheduled,
		ScheduledAt: req.ScheduledAt,
		Location:    req.Location,
		Notes:       req.Notes,
		AssessorID:  actor.UserID,
	}

	id, err := s.repo.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create assessment: %w", err)
	}

	for i, sr := range req.Sections {
		sec := Section{
			AssessmentID: id,
			Title:        sr.Title,
			Weight:       sr.Weight,
			MaxScore:     sr.MaxScore,
			SortOrder:    sr.SortOrder,
		}
		if sec.MaxScore == 0 {
			sec.MaxScore = 100
		}
		if sec.SortOrder == 0 {
			sec.SortOrder = i + 1
		}
		sectionID, err := s.repo.InsertSection(ctx, sec)
		if err != nil {
			return nil, fmt.Errorf("insert section: %w", err)
		}

		for j, ir := range sr.Items {
			item := Item{
				SectionID:      sectionID,
				Type:           ir.Type,
				Prompt:         ir.Prompt,
				MaxPoints:      ir.MaxPoints,
				SortOrder:      ir.SortOrder,
				RatingScale:    ir.RatingScale,
				ReverseScoring: ir.ReverseScoring,
				PositiveAnswer: ir.PositiveAnswer,
				MinAcceptable:  ir.MinAcceptable,
				MaxAcceptable:  ir.MaxAcceptable,
				ChoicePoints:   ir.ChoicePoints,
			}
			if item.SortOrder == 0 {
				item.SortOrder = j + 1
			}
			if _, err := s.repo.InsertItem(ctx, item); err != nil {
				return nil, fmt.Errorf("insert item: %w", err)
			}
		}
	}

	s.audit(ctx, actor, "assessment.created", id, map[string]any{"doc_number": docNumber})
	return s.repo.Get(ctx, actor.CompanyID, id)
}

// Get returns one assessment with sections, items and photos.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*Assessment, error) {
	a, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	for i := range a.Photos {
		a.Photos[i].URL = s.files.URL(a.Photos[i].Path)
	}
	return a, nil
}

// List returns a page of assessments.
func (s *Service) List(ctx context.Context, req ListAssessmentsRequest) ([]Assessment, int, error) {
	req.Limit, req.Offset = shared.ClampPage(req.Limit, req.Offset)
	return s.repo.List(ctx, req)
}

// Start transitions SCHEDULED -> IN_PROGRESS.
func (s *Service) Start(ctx context.Context, actor shared.Actor, id int64) (*Assessment, error) {
	return s.transition(ctx, actor, id, StatusInProgress)
}

// Cancel voids an assessment from SCHEDULED or IN_PROGRESS.
func (s *Service) Cancel(ctx context.Context, actor shared.Actor, id int64) (*Assessment, error) {
	return s.transition(ctx, actor, id, StatusCancelled)
}

// Complete scores every section, derives the overall score and risk
// level, and transitions IN_PROGRESS -> COMPLETED.
func (s *Service) Complete(ctx context.Context, actor shared.Actor, id int64) (*Assessment, error) {
	a, err := s.repo.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, StatusCompleted) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, StatusCompleted)
	}

	for i := range a.Sections {
		score := ScoreSection(a.Sections[i])
		a.Sections[i].ActualScore = &score
		if err := s.repo.UpdateSectionScore(ctx, a.Sections[i].ID, score); err != nil {
			return nil, fmt.Errorf("update section score: %w", err)
		}
	}

	overall := OverallScore(a.Sections)
	risk := RiskFor(a.ServiceType, overall)
	a.OverallScore = &overall
	a.RiskLevel = &risk
	if err := s.repo.UpdateScores(ctx, *a); err != nil {
		return nil, fmt.Errorf("update scores: %w", err)
	}

	now := s.now()
	a.Status = StatusCompleted
	a.CompletedAt = &now
	if err := s.repo.UpdateStatus(ctx, *a); err != nil {
		return nil, fmt.Errorf("complete assessment: %w", err)
	}

	s.audit(ctx, actor, "assessment.completed", id, map[string]any{
		"overall_score": overall,
		"risk_level":    risk,
	})
	return s.repo.Get(ctx, actor.CompanyID, id)
}

func (s *Service) transition(ctx context.Context, actor shared.Actor, id int64, to Status) (*Assessment, error) {
	a, err := s.repo.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}

	from := a.Status
	now := s.now()
	a.Status = to
	switch to {
	case StatusInProgress:
		a.StartedAt = &now
	case StatusCancelled:
		a.CancelledAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, *a); err != nil {
		return nil, fmt.Errorf("transition assessment: %w", err)
	}
	s.audit(ctx, actor, "assessment.status_changed", id, map[string]any{"from": from, "to": to})
	return s.repo.Get(ctx, actor.CompanyID, id)
}

// RecordResponse stores a typed response on one item and derives its
// points while the assessment is IN_PROGRESS.
func (s *Service) RecordResponse(ctx context.Context, actor shared.Actor, assessmentID, itemID int64, req RecordResponseRequest) (*Item, error) {
	a, err := s.repo.Get(ctx, actor.CompanyID, assessmentID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusInProgress {
		return nil, ErrNotInProgress
	}

	item, err := s.findItem(a, itemID)
	if err != nil {
		return nil, err
	}

	if req.RatingValue != nil {
		item.RatingValue = req.RatingValue
	}
	if req.BoolValue != nil {
		item.BoolValue = req.BoolValue
	}
	if req.MeasuredValue != nil {
		item.MeasuredValue = req.MeasuredValue
	}
	if req.ChoiceValue != nil {
		item.ChoiceValue = req.ChoiceValue
	}
	if req.TextValue != nil {
		item.TextValue = req.TextValue
	}
	if req.ManualPoints != nil {
		item.ManualPoints = req.ManualPoints
	}
	if req.Recommendation != nil {
		item.Recommendation = req.Recommendation
	}
	if req.EstimatedCost != nil {
		item.EstimatedCost = req.EstimatedCost
	}
	if req.PricingItemID != nil {
		item.PricingItemID = req.PricingItemID
	}

	points := ScoreItem(*item)
	item.ActualPoints = &points

	if err := s.repo.UpdateItemResponse(ctx, *item); err != nil {
		return nil, fmt.Errorf("update item response: %w", err)
	}
	return item, nil
}

func (s *Service) findItem(a *Assessment, itemID int64) (*Item, error) {
	for i := range a.Sections {
		for j := range a.Sections[i].Items {
			if a.Sections[i].Items[j].ID == itemID {
				return &a.Sections[i].Items[j], nil
			}
		}
	}
	return nil, ErrNotFound
}

// AttachPhoto stores an evidence image and runs the image pipeline.
// Processing failures degrade gracefully: the photo row is kept with
// processed=false and a warning is logged.
func (s *Service) AttachPhoto(ctx context.Context, actor shared.Actor, assessmentID int64, req AttachPhotoRequest, r io.Reader) (*Photo, error) {
	a, err := s.repo.Get(ctx, actor.CompanyID, assessmentID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusInProgress {
		return nil, ErrNotInProgress
	}

	ext := path.Ext(req.Filename)
	storedPath := fmt.Sprintf("assessments/%d/%s%s", assessmentID, uuid.NewString(), ext)
	if err := s.files.Store(ctx, storedPath, r); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	p := Photo{
		AssessmentID: assessmentID,
		ItemID:       req.ItemID,
		Path:         storedPath,
		Caption:      req.Caption,
		Processed:    true,
	}
	if s.processor != nil {
		if err := s.processor.Process(ctx, storedPath); err != nil {
			s.logger.Warn("photo processing failed",
				slog.Int64("assessment_id", assessmentID),
				slog.String("path", storedPath),
				slog.Any("error", err))
			p.Processed = false
		}
	}

	id, err := s.repo.InsertPhoto(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("insert photo: %w", err)
	}
	p.ID = id
	p.URL = s.files.URL(storedPath)
	p.CreatedAt = s.now()
	return &p, nil
}

// GenerateQuotation builds a DRAFT quotation from the recommendations
// recorded on a COMPLETED assessment.
func (s *Service) GenerateQuotation(ctx context.Context, actor shared.Actor, assessmentID int64, req GenerateQuotationRequest) (*quotations.Quotation, error) {
	a, err := s.repo.Get(ctx, actor.CompanyID, assessmentID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusCompleted {
		return nil, ErrNotCompleted
	}

	var items []quotations.CreateItemRequest
	for _, sec := range a.Sections {
		for _, it := range sec.Items {
			if it.Recommendation == nil {
				continue
			}
			line := quotations.CreateItemRequest{
				PricingItemID: it.PricingItemID,
				Description:   *it.Recommendation,
				Quantity:      1,
			}
			if it.EstimatedCost != nil {
				line.UnitPrice = *it.EstimatedCost
			}
			items = append(items, line)
		}
	}
	if len(items) == 0 {
		return nil, errors.New("assessments: no recommendations to quote")
	}

	validDays := req.ValidDays
	if validDays == 0 {
		validDays = 30
	}
	issueDate := s.now()
	q, err := s.quotes.Create(ctx, actor, quotations.CreateQuotationRequest{
		LeadID:      a.LeadID,
		IssueDate:   issueDate,
		ValidUntil:  issueDate.AddDate(0, 0, validDays),
		Currency:    req.Currency,
		DiscountPct: req.DiscountPct,
		TaxPct:      req.TaxPct,
		Items:       items,
	})
	if err != nil {
		return nil, fmt.Errorf("generate quotation: %w", err)
	}

	s.audit(ctx, actor, "assessment.quotation_generated", assessmentID, map[string]any{
		"quotation_id": q.ID,
	})
	return q, nil
}

func (s *Service) audit(ctx context.Context, actor shared.Actor, action string, assessmentID int64, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Record(ctx, shared.AuditLog{
		CompanyID: actor.CompanyID,
		ActorID:   actor.UserID,
		Action:    action,
		Scope:     shared.Scope{Type: shared.ScopeAssessment, ID: assessmentID},
		Meta:      meta,
	})
}
