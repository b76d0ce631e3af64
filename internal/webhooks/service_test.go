package webhooks

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryWebhookRepo struct {
	nextID     int64
	endpoints  map[int64]Endpoint
	deliveries map[int64]Delivery
}

func newMemoryWebhookRepo() *memoryWebhookRepo {
	return &memoryWebhookRepo{
		endpoints:  make(map[int64]Endpoint),
		deliveries: make(map[int64]Delivery),
	}
}

func (r *memoryWebhookRepo) GetEndpoint(ctx context.Context, companyID, id int64) (*Endpoint, error) {
	e, ok := r.endpoints[id]
	if !ok || e.CompanyID != companyID {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (r *memoryWebhookRepo) CreateEndpoint(ctx context.Context, e Endpoint) (int64, error) {
	r.nextID++
	e.ID = r.nextID
	r.endpoints[e.ID] = e
	return e.ID, nil
}

func (r *memoryWebhookRepo) UpdateEndpoint(ctx context.Context, e Endpoint) error {
	if _, ok := r.endpoints[e.ID]; !ok {
		return ErrNotFound
	}
	r.endpoints[e.ID] = e
	return nil
}

func (r *memoryWebhookRepo) DeleteEndpoint(ctx context.Context, companyID, id int64) error {
	e, ok := r.endpoints[id]
	if !ok || e.CompanyID != companyID {
		return ErrNotFound
	}
	delete(r.endpoints, id)
	return nil
}

func (r *memoryWebhookRepo) ListEndpoints(ctx context.Context, companyID int64) ([]Endpoint, error) {
	var result []Endpoint
	for _, e := range r.endpoints {
		if e.CompanyID == companyID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *memoryWebhookRepo) ListSubscribed(ctx context.Context, companyID int64, event string) ([]Endpoint, error) {
	var result []Endpoint
	for _, e := range r.endpoints {
		if e.CompanyID == companyID && e.Active && e.SubscribedTo(event) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *memoryWebhookRepo) IncrementSuccess(ctx context.Context, endpointID int64) error {
	e := r.endpoints[endpointID]
	e.SuccessCount++
	r.endpoints[endpointID] = e
	return nil
}

func (r *memoryWebhookRepo) IncrementFailure(ctx context.Context, endpointID int64) error {
	e := r.endpoints[endpointID]
	e.FailureCount++
	r.endpoints[endpointID] = e
	return nil
}

func (r *memoryWebhookRepo) GetDelivery(ctx context.Context, id int64) (*Delivery, error) {
	d, ok := r.deliveries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r *memoryWebhookRepo) CreateDelivery(ctx context.Context, d Delivery) (int64, error) {
	r.nextID++
	d.ID = r.nextID
	r.deliveries[d.ID] = d
	return d.ID, nil
}

func (r *memoryWebhookRepo) ClaimDelivery(ctx context.Context, id int64, now time.Time) (bool, error) {
	d, ok := r.deliveries[id]
	if !ok {
		return false, nil
	}
	switch {
	case d.Status == DeliveryPending:
		return true, nil
	case d.Status == DeliveryRetrying && d.NextRetryAt != nil && !d.NextRetryAt.After(now):
		d.Status = DeliveryPending
		d.NextRetryAt = nil
		r.deliveries[id] = d
		return true, nil
	}
	return false, nil
}

func (r *memoryWebhookRepo) RecordAttempt(ctx context.Context, d Delivery) error {
	if _, ok := r.deliveries[d.ID]; !ok {
		return ErrNotFound
	}
	r.deliveries[d.ID] = d
	return nil
}

func (r *memoryWebhookRepo) ListDeliveries(ctx context.Context, companyID, endpointID int64, limit, offset int) ([]Delivery, int, error) {
	var result []Delivery
	for _, d := range r.deliveries {
		if d.CompanyID == companyID && d.EndpointID == endpointID {
			result = append(result, d)
		}
	}
	return result, len(result), nil
}

func (r *memoryWebhookRepo) ListDueRetries(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	var ids []int64
	for id, d := range r.deliveries {
		if d.Status == DeliveryRetrying && d.NextRetryAt != nil && !d.NextRetryAt.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type stubEnqueuer struct {
	enqueued []int64
}

func (e *stubEnqueuer) EnqueueWebhookDelivery(ctx context.Context, deliveryID int64) error {
	e.enqueued = append(e.enqueued, deliveryID)
	return nil
}

func newWebhookTestService() (*Service, *memoryWebhookRepo, *stubEnqueuer) {
	repo := newMemoryWebhookRepo()
	enqueuer := &stubEnqueuer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo, enqueuer), repo, enqueuer
}

func seedEndpoint(repo *memoryWebhookRepo, url string, maxRetries int) int64 {
	id, _ := repo.CreateEndpoint(context.Background(), Endpoint{
		CompanyID:  1,
		Name:       "test endpoint",
		URL:        url,
		Secret:     "topsecret",
		Events:     []string{"invoice.paid"},
		Active:     true,
		MaxRetries: maxRetries,
	})
	return id
}

func seedDelivery(repo *memoryWebhookRepo, endpointID int64, status DeliveryStatus) int64 {
	id, _ := repo.CreateDelivery(context.Background(), Delivery{
		EndpointID: endpointID,
		CompanyID:  1,
		Event:      "invoice.paid",
		Payload:    []byte(`{"event":"invoice.paid"}`),
		Status:     status,
	})
	return id
}

func TestDispatchFansOutToSubscribers(t *testing.T) {
	svc, repo, enqueuer := newWebhookTestService()
	ctx := context.Background()

	seedEndpoint(repo, "http://a.example", 5)
	seedEndpoint(repo, "http://b.example", 5)
	otherID, _ := repo.CreateEndpoint(ctx, Endpoint{
		CompanyID: 1, URL: "http://c.example", Events: []string{"lead.created"}, Active: true,
	})

	svc.Dispatch(ctx, 1, "invoice.paid", map[string]any{"invoice_id": 42})

	require.Len(t, enqueuer.enqueued, 2)
	for _, d := range repo.deliveries {
		require.NotEqual(t, otherID, d.EndpointID)
		require.Equal(t, DeliveryPending, d.Status)
		require.Equal(t, "invoice.paid", d.Event)
	}
}

func TestAttemptSuccess(t *testing.T) {
	var gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc, repo, _ := newWebhookTestService()
	endpointID := seedEndpoint(repo, server.URL, 5)
	deliveryID := seedDelivery(repo, endpointID, DeliveryPending)

	require.NoError(t, svc.Attempt(context.Background(), deliveryID))

	d := repo.deliveries[deliveryID]
	require.Equal(t, DeliverySent, d.Status)
	require.Equal(t, 1, d.Attempts)
	require.NotNil(t, d.SentAt)
	require.Nil(t, d.NextRetryAt)
	require.Equal(t, int64(1), repo.endpoints[endpointID].SuccessCount)
	require.True(t, VerifySignature("topsecret", []byte(`{"event":"invoice.paid"}`), gotSignature))
}

func TestAttemptFailureSchedulesRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc, repo, _ := newWebhookTestService()
	base := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	endpointID := seedEndpoint(repo, server.URL, 5)
	deliveryID := seedDelivery(repo, endpointID, DeliveryPending)

	require.NoError(t, svc.Attempt(context.Background(), deliveryID))

	d := repo.deliveries[deliveryID]
	require.Equal(t, DeliveryRetrying, d.Status)
	require.Equal(t, 1, d.Attempts)
	require.NotNil(t, d.NextRetryAt)
	require.Equal(t, base.Add(60*time.Second), *d.NextRetryAt)
}

func TestAttemptExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc, repo, _ := newWebhookTestService()
	endpointID := seedEndpoint(repo, server.URL, 1)
	deliveryID := seedDelivery(repo, endpointID, DeliveryPending)

	require.NoError(t, svc.Attempt(context.Background(), deliveryID))

	d := repo.deliveries[deliveryID]
	require.Equal(t, DeliveryFailed, d.Status)
	require.Nil(t, d.NextRetryAt)
	require.Equal(t, int64(1), repo.endpoints[endpointID].FailureCount)
}

func TestAttemptSkipsUnclaimableDelivery(t *testing.T) {
	svc, repo, _ := newWebhookTestService()
	endpointID := seedEndpoint(repo, "http://unused.example", 5)
	deliveryID := seedDelivery(repo, endpointID, DeliverySent)

	require.NoError(t, svc.Attempt(context.Background(), deliveryID))

	d := repo.deliveries[deliveryID]
	require.Equal(t, DeliverySent, d.Status)
	require.Zero(t, d.Attempts)
}

func TestAttemptSkipsNotYetDueRetry(t *testing.T) {
	svc, repo, _ := newWebhookTestService()
	base := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	endpointID := seedEndpoint(repo, "http://unused.example", 5)
	deliveryID := seedDelivery(repo, endpointID, DeliveryRetrying)
	d := repo.deliveries[deliveryID]
	future := base.Add(time.Hour)
	d.NextRetryAt = &future
	repo.deliveries[deliveryID] = d

	require.NoError(t, svc.Attempt(context.Background(), deliveryID))
	require.Equal(t, DeliveryRetrying, repo.deliveries[deliveryID].Status)
}

func TestSweepRetriesEnqueuesDue(t *testing.T) {
	svc, repo, enqueuer := newWebhookTestService()
	base := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	endpointID := seedEndpoint(repo, "http://unused.example", 5)

	dueID := seedDelivery(repo, endpointID, DeliveryRetrying)
	due := repo.deliveries[dueID]
	past := base.Add(-time.Minute)
	due.NextRetryAt = &past
	repo.deliveries[dueID] = due

	notDueID := seedDelivery(repo, endpointID, DeliveryRetrying)
	notDue := repo.deliveries[notDueID]
	future := base.Add(time.Hour)
	notDue.NextRetryAt = &future
	repo.deliveries[notDueID] = notDue

	n, err := svc.SweepRetries(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []int64{dueID}, enqueuer.enqueued)
}
