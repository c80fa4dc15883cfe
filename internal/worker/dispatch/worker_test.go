package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/easey-git/easey-app-sub001/internal/service/models/outbox"
)

type fakeOutboxRepo struct {
	pending    []outbox.Message
	pendingErr error

	deleted []int64
	retries []retryUpdate
}

type retryUpdate struct {
	id          int64
	retryCount  int
	lastError   string
	nextRetryAt time.Time
}

func (r *fakeOutboxRepo) Insert(_ context.Context, _ outbox.Message) error { return nil }

func (r *fakeOutboxRepo) GetPendingMessages(_ context.Context, _ int) ([]outbox.Message, error) {
	return r.pending, r.pendingErr
}

func (r *fakeOutboxRepo) Delete(_ context.Context, id int64) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeOutboxRepo) UpdateRetry(_ context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error {
	r.retries = append(r.retries, retryUpdate{id, retryCount, lastError, nextRetryAt})
	return nil
}

type fakePublisher struct {
	err       error
	published []string
}

func (p *fakePublisher) Publish(queueName, _ string, _ []byte) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, queueName)
	return nil
}

func newTestWorker(repo *fakeOutboxRepo, pub *fakePublisher) *Worker {
	return &Worker{
		outboxRepo: repo,
		publisher:  pub,
		batchSize:  100,
		stopCh:     make(chan struct{}),
	}
}

func TestDrainDeletesOnSuccess(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []outbox.Message{
		{ID: 1, QueueName: "push.broadcast", ContentType: "application/json", Payload: []byte(`{}`)},
		{ID: 2, QueueName: "push.broadcast", ContentType: "application/json", Payload: []byte(`{}`)},
	}}
	pub := &fakePublisher{}

	newTestWorker(repo, pub).drain(context.Background())

	if len(pub.published) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.published))
	}
	if len(repo.deleted) != 2 || repo.deleted[0] != 1 || repo.deleted[1] != 2 {
		t.Fatalf("deleted = %v", repo.deleted)
	}
	if len(repo.retries) != 0 {
		t.Fatalf("successful publishes recorded %d retries", len(repo.retries))
	}
}

func TestDrainRetriesOnPublishFailure(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []outbox.Message{
		{ID: 7, QueueName: "push.broadcast", RetryCount: 1, Payload: []byte(`{}`)},
	}}
	pub := &fakePublisher{err: errors.New("channel closed")}

	before := time.Now()
	newTestWorker(repo, pub).drain(context.Background())

	if len(repo.deleted) != 0 {
		t.Fatalf("failed publish deleted rows: %v", repo.deleted)
	}
	if len(repo.retries) != 1 {
		t.Fatalf("expected one retry update, got %d", len(repo.retries))
	}

	ru := repo.retries[0]
	if ru.id != 7 || ru.retryCount != 2 {
		t.Fatalf("retry update = %+v", ru)
	}
	if ru.lastError != "channel closed" {
		t.Fatalf("lastError = %q", ru.lastError)
	}

	// Second attempt backs off 2^2 * 30s = 120s.
	want := before.Add(120 * time.Second)
	if ru.nextRetryAt.Before(want) || ru.nextRetryAt.After(want.Add(5*time.Second)) {
		t.Fatalf("nextRetryAt = %v, want ~%v", ru.nextRetryAt, want)
	}
}

func TestBackoffDoubles(t *testing.T) {
	cases := []struct {
		retryCount int
		want       time.Duration
	}{
		{1, 60 * time.Second},
		{2, 120 * time.Second},
		{3, 240 * time.Second},
		{5, 960 * time.Second},
	}
	for _, tc := range cases {
		if got := backoff(tc.retryCount); got != tc.want {
			t.Fatalf("backoff(%d) = %v, want %v", tc.retryCount, got, tc.want)
		}
	}
}

func TestDrainEmptyOutbox(t *testing.T) {
	repo := &fakeOutboxRepo{}
	pub := &fakePublisher{}

	newTestWorker(repo, pub).drain(context.Background())

	if len(pub.published) != 0 || len(repo.deleted) != 0 || len(repo.retries) != 0 {
		t.Fatal("empty outbox must be a no-op")
	}
}

func TestDrainPendingLookupFailure(t *testing.T) {
	repo := &fakeOutboxRepo{pendingErr: errors.New("pg down")}
	pub := &fakePublisher{}

	// Must not panic or publish.
	newTestWorker(repo, pub).drain(context.Background())

	if len(pub.published) != 0 {
		t.Fatalf("published despite lookup failure: %v", pub.published)
	}
}
