package proofs

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/quotient-crm/quotient/internal/shared"
	"github.com/quotient-crm/quotient/internal/storage"
)

// Auditor records who did what.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles proof and trust-artifact business logic.
type Service struct {
	repo    Repository
	files   storage.Storage
	auditor Auditor
	now     func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, files storage.Storage, auditor Auditor) *Service {
	return &Service{repo: repo, files: files, auditor: auditor, now: time.Now}
}

// Create attaches a new proof to a lead, quotation or invoice. The
// scope goes through the registry; unknown types are rejected.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateProofRequest) (*Proof, error) {
	scope, err := shared.ParseScope(req.ScopeType, req.ScopeID)
	if err != nil {
		return nil, fmt.Errorf("proofs: %w", err)
	}

	p := Proof{
		CompanyID:   actor.CompanyID,
		Scope:       scope,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Published:   req.Published,
		CreatedBy:   actor.UserID,
	}
	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create proof: %w", err)
	}

	s.audit(ctx, actor, "proof.created", scope, map[string]any{"proof_id": id})
	return s.Get(ctx, actor.CompanyID, id)
}

// Get returns one proof with its assets.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*Proof, error) {
	p, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	for i := range p.Assets {
		p.Assets[i].URL = s.files.URL(p.Assets[i].Path)
	}
	return p, nil
}

// Update edits proof metadata and publish state.
func (s *Service) Update(ctx context.Context, actor shared.Actor, id int64, req UpdateProofRequest) (*Proof, error) {
	p, err := s.repo.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Published != nil {
		p.Published = *req.Published
	}
	if err := s.repo.Update(ctx, *p); err != nil {
		return nil, fmt.Errorf("update proof: %w", err)
	}
	return s.Get(ctx, actor.CompanyID, id)
}

// List returns a page of proofs.
func (s *Service) List(ctx context.Context, req ListProofsRequest) ([]Proof, int, error) {
	req.Limit, req.Offset = shared.ClampPage(req.Limit, req.Offset)
	return s.repo.List(ctx, req)
}

// RecordView stores an engagement event and bumps the monotonic
// counters. Counters are never decremented.
func (s *Service) RecordView(ctx context.Context, companyID, proofID int64, req RecordViewRequest) error {
	if _, err := s.repo.Get(ctx, companyID, proofID); err != nil {
		return err
	}
	_, err := s.repo.RecordView(ctx, View{
		ProofID:   proofID,
		ViewerIP:  req.ViewerIP,
		UserAgent: req.UserAgent,
		Clicked:   req.Clicked,
	})
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

// AddAsset stores a file and attaches it to the proof.
func (s *Service) AddAsset(ctx context.Context, actor shared.Actor, proofID int64, req AddAssetRequest, r io.Reader) (*Asset, error) {
	p, err := s.repo.Get(ctx, actor.CompanyID, proofID)
	if err != nil {
		return nil, err
	}

	ext := path.Ext(req.Filename)
	storedPath := fmt.Sprintf("proofs/%d/%s%s", proofID, uuid.NewString(), ext)
	if err := s.files.Store(ctx, storedPath, r); err != nil {
		return nil, fmt.Errorf("store asset: %w", err)
	}

	a := Asset{
		ProofID:   proofID,
		Path:      storedPath,
		MimeType:  req.MimeType,
		Caption:   req.Caption,
		SortOrder: req.SortOrder,
	}
	id, err := s.repo.InsertAsset(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("insert asset: %w", err)
	}
	a.ID = id
	a.URL = s.files.URL(storedPath)
	a.CreatedAt = s.now()

	s.audit(ctx, actor, "proof.asset_added", p.Scope, map[string]any{
		"proof_id": proofID,
		"asset_id": id,
	})
	return &a, nil
}

// RemoveAsset deletes the asset row and its stored file.
func (s *Service) RemoveAsset(ctx context.Context, actor shared.Actor, proofID, assetID int64) error {
	p, err := s.repo.Get(ctx, actor.CompanyID, proofID)
	if err != nil {
		return err
	}
	var target *Asset
	for i := range p.Assets {
		if p.Assets[i].ID == assetID {
			target = &p.Assets[i]
			break
		}
	}
	if target == nil {
		return ErrNotFound
	}
	if err := s.repo.DeleteAsset(ctx, proofID, assetID); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, target.Path); err != nil {
		return fmt.Errorf("delete asset file: %w", err)
	}
	return nil
}

// CreateTestimonial stores a new customer testimonial.
func (s *Service) CreateTestimonial(ctx context.Context, actor shared.Actor, req CreateTestimonialRequest) (*Testimonial, error) {
	id, err := s.repo.CreateTestimonial(ctx, Testimonial{
		CompanyID:    actor.CompanyID,
		CustomerName: req.CustomerName,
		Content:      req.Content,
		Rating:       req.Rating,
		Published:    req.Published,
	})
	if err != nil {
		return nil, fmt.Errorf("create testimonial: %w", err)
	}
	return s.repo.GetTestimonial(ctx, actor.CompanyID, id)
}

// ListTestimonials returns all testimonials for the company.
func (s *Service) ListTestimonials(ctx context.Context, companyID int64) ([]Testimonial, error) {
	return s.repo.ListTestimonials(ctx, companyID)
}

// FeatureTestimonial makes one testimonial the featured entry,
// unfeaturing any sibling in the same transaction.
func (s *Service) FeatureTestimonial(ctx context.Context, actor shared.Actor, id int64) (*Testimonial, error) {
	if err := s.repo.SetFeaturedTestimonial(ctx, actor.CompanyID, id); err != nil {
		return nil, err
	}
	return s.repo.GetTestimonial(ctx, actor.CompanyID, id)
}

// CreateCaseStudy stores a new case study.
func (s *Service) CreateCaseStudy(ctx context.Context, actor shared.Actor, req CreateCaseStudyRequest) (int64, error) {
	return s.repo.CreateCaseStudy(ctx, CaseStudy{
		CompanyID: actor.CompanyID,
		Title:     req.Title,
		Summary:   req.Summary,
		Body:      req.Body,
		Published: req.Published,
	})
}

// ListCaseStudies returns the company's case studies.
func (s *Service) ListCaseStudies(ctx context.Context, companyID int64) ([]CaseStudy, error) {
	return s.repo.ListCaseStudies(ctx, companyID)
}

// DeleteCaseStudy soft-deletes a case study.
func (s *Service) DeleteCaseStudy(ctx context.Context, actor shared.Actor, id int64) error {
	return s.repo.DeleteCaseStudy(ctx, actor.CompanyID, id)
}

// CreateCertification stores a new certification.
func (s *Service) CreateCertification(ctx context.Context, actor shared.Actor, req CreateCertificationRequest) (int64, error) {
	return s.repo.CreateCertification(ctx, Certification{
		CompanyID: actor.CompanyID,
		Name:      req.Name,
		Issuer:    req.Issuer,
		IssuedAt:  req.IssuedAt,
		ExpiresAt: req.ExpiresAt,
		Published: req.Published,
	})
}

// ListCertifications returns the company's certifications.
func (s *Service) ListCertifications(ctx context.Context, companyID int64) ([]Certification, error) {
	return s.repo.ListCertifications(ctx, companyID)
}

// DeleteCertification soft-deletes a certification.
func (s *Service) DeleteCertification(ctx context.Context, actor shared.Actor, id int64) error {
	return s.repo.DeleteCertification(ctx, actor.CompanyID, id)
}

func (s *Service) audit(ctx context.Context, actor shared.Actor, action string, scope shared.Scope, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Record(ctx, shared.AuditLog{
		CompanyID: actor.CompanyID,
		ActorID:   actor.UserID,
		Action:    action,
		Scope:     scope,
		Meta:      meta,
	})
}
