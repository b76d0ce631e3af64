package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxResponseBytes bounds the stored response body excerpt.
const maxResponseBytes = 1000

// sweepBatchSize bounds how many due retries one sweep picks up.
const sweepBatchSize = 500

// sweepConcurrency bounds the sweep fan-out.
const sweepConcurrency = 8

// Enqueuer hands deliveries to the background queue.
type Enqueuer interface {
	EnqueueWebhookDelivery(ctx context.Context, deliveryID int64) error
}

// Service owns webhook endpoints, fan-out and delivery attempts.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	enqueuer Enqueuer
	now      func() time.Time
}

// NewService builds a Service instance.
func NewService(logger *slog.Logger, repo Repository, enqueuer Enqueuer) *Service {
	return &Service{logger: logger, repo: repo, enqueuer: enqueuer, now: time.Now}
}

// CreateEndpoint registers a subscriber endpoint.
func (s *Service) CreateEndpoint(ctx context.Context, companyID int64, req CreateEndpointRequest) (*Endpoint, error) {
	e := Endpoint{
		CompanyID:      companyID,
		Name:           req.Name,
		URL:            req.URL,
		Secret:         req.Secret,
		Events:         req.Events,
		Active:         req.Active,
		MaxRetries:     req.MaxRetries,
		TimeoutSeconds: req.TimeoutSeconds,
	}
	if e.MaxRetries == 0 {
		e.MaxRetries = 5
	}
	id, err := s.repo.CreateEndpoint(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("create endpoint: %w", err)
	}
	return s.repo.GetEndpoint(ctx, companyID, id)
}

// UpdateEndpoint edits a subscriber endpoint.
func (s *Service) UpdateEndpoint(ctx context.Context, companyID, id int64, req UpdateEndpointRequest) (*Endpoint, error) {
	e, err := s.repo.GetEndpoint(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		e.Name = *req.Name
	}
	if req.URL != nil {
		e.URL = *req.URL
	}
	if req.Events != nil {
		e.Events = req.Events
	}
	if req.Active != nil {
		e.Active = *req.Active
	}
	if req.MaxRetries != nil {
		e.MaxRetries = *req.MaxRetries
	}
	if req.TimeoutSeconds != nil {
		e.TimeoutSeconds = *req.TimeoutSeconds
	}
	if err := s.repo.UpdateEndpoint(ctx, *e); err != nil {
		return nil, fmt.Errorf("update endpoint: %w", err)
	}
	return s.repo.GetEndpoint(ctx, companyID, id)
}

// DeleteEndpoint removes a subscriber endpoint.
func (s *Service) DeleteEndpoint(ctx context.Context, companyID, id int64) error {
	return s.repo.DeleteEndpoint(ctx, companyID, id)
}

// GetEndpoint returns one endpoint.
func (s *Service) GetEndpoint(ctx context.Context, companyID, id int64) (*Endpoint, error) {
	return s.repo.GetEndpoint(ctx, companyID, id)
}

// ListEndpoints returns the company's endpoints.
func (s *Service) ListEndpoints(ctx context.Context, companyID int64) ([]Endpoint, error) {
	return s.repo.ListEndpoints(ctx, companyID)
}

// ListDeliveries returns a page of deliveries for one endpoint.
func (s *Service) ListDeliveries(ctx context.Context, companyID, endpointID int64, limit, offset int) ([]Delivery, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListDeliveries(ctx, companyID, endpointID, limit, offset)
}

// Dispatch creates one delivery per active subscribed endpoint and
// hands each to the queue. Fan-out failures are logged, not returned;
// a broken endpoint must not fail the originating request.
func (s *Service) Dispatch(ctx context.Context, companyID int64, event string, data any) {
	endpoints, err := s.repo.ListSubscribed(ctx, companyID, event)
	if err != nil {
		s.logger.Error("webhook fan-out failed",
			slog.String("event", event), slog.Any("error", err))
		return
	}
	if len(endpoints) == 0 {
		return
	}

	payload, err := json.Marshal(payloadEnvelope{
		Event:       event,
		Data:        data,
		DeliveredAt: s.now(),
	})
	if err != nil {
		s.logger.Error("webhook payload encode failed",
			slog.String("event", event), slog.Any("error", err))
		return
	}

	for _, e := range endpoints {
		id, err := s.repo.CreateDelivery(ctx, Delivery{
			EndpointID: e.ID,
			CompanyID:  companyID,
			Event:      event,
			Payload:    payload,
			Status:     DeliveryPending,
		})
		if err != nil {
			s.logger.Error("webhook delivery create failed",
				slog.Int64("endpoint_id", e.ID), slog.Any("error", err))
			continue
		}
		if err := s.enqueuer.EnqueueWebhookDelivery(ctx, id); err != nil {
			s.logger.Error("webhook enqueue failed",
				slog.Int64("delivery_id", id), slog.Any("error", err))
		}
	}
}

// Attempt performs one delivery attempt. It claims the delivery first;
// a delivery another worker already claimed or that is not yet due is
// skipped silently, which makes retry sweeps idempotent.
func (s *Service) Attempt(ctx context.Context, deliveryID int64) error {
	claimed, err := s.repo.ClaimDelivery(ctx, deliveryID, s.now())
	if err != nil {
		return fmt.Errorf("claim delivery: %w", err)
	}
	if !claimed {
		return nil
	}

	d, err := s.repo.GetDelivery(ctx, deliveryID)
	if err != nil {
		return err
	}
	e, err := s.repo.GetEndpoint(ctx, d.CompanyID, d.EndpointID)
	if err != nil {
		return err
	}

	statusCode, body, attemptErr := s.post(ctx, e, d.Payload)
	d.Attempts++
	if statusCode > 0 {
		d.LastStatusCode = &statusCode
	}
	if body != "" {
		d.ResponseBody = &body
	}

	success := attemptErr == nil && statusCode >= 200 && statusCode < 300
	if success {
		now := s.now()
		d.Status = DeliverySent
		d.SentAt = &now
		d.NextRetryAt = nil
		if err := s.repo.RecordAttempt(ctx, *d); err != nil {
			return fmt.Errorf("record attempt: %w", err)
		}
		return s.repo.IncrementSuccess(ctx, e.ID)
	}

	if d.Attempts < e.MaxRetries {
		next := s.now().Add(BackoffDelay(d.Attempts))
		d.Status = DeliveryRetrying
		d.NextRetryAt = &next
		if err := s.repo.RecordAttempt(ctx, *d); err != nil {
			return fmt.Errorf("record attempt: %w", err)
		}
		s.logger.Warn("webhook delivery failed, scheduled retry",
			slog.Int64("delivery_id", d.ID),
			slog.Int("attempt", d.Attempts),
			slog.Time("next_retry_at", next),
			slog.Any("error", attemptErr))
		return nil
	}

	d.Status = DeliveryFailed
	d.NextRetryAt = nil
	if err := s.repo.RecordAttempt(ctx, *d); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	s.logger.Error("webhook delivery exhausted retries",
		slog.Int64("delivery_id", d.ID),
		slog.Int("attempts", d.Attempts))
	return s.repo.IncrementFailure(ctx, e.ID)
}

func (s *Service) post(ctx context.Context, e *Endpoint, payload []byte) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(e.Secret, payload))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	return resp.StatusCode, string(excerpt), nil
}

// SweepRetries re-enqueues retrying deliveries whose retry time has
// passed. Safe to run concurrently; the per-delivery claim arbitrates.
func (s *Service) SweepRetries(ctx context.Context) (int, error) {
	ids, err := s.repo.ListDueRetries(ctx, s.now(), sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list due retries: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := s.enqueuer.EnqueueWebhookDelivery(ctx, id); err != nil {
				s.logger.Error("webhook sweep enqueue failed",
					slog.Int64("delivery_id", id), slog.Any("error", err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(ids), nil
}
