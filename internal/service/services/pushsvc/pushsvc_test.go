package pushsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/easey-git/easey-app-sub001/internal/service/models/outbox"
)

type fakeTokenRepo struct {
	tokens []string
	err    error
}

func (r *fakeTokenRepo) List(_ context.Context) ([]string, error) {
	return r.tokens, r.err
}

type fakeOutboxRepo struct {
	mu       sync.Mutex
	inserted []outbox.Message
}

func (r *fakeOutboxRepo) Insert(_ context.Context, msg outbox.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, msg)
	return nil
}

func (r *fakeOutboxRepo) GetPendingMessages(_ context.Context, _ int) ([]outbox.Message, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) Delete(_ context.Context, _ int64) error { return nil }

func (r *fakeOutboxRepo) UpdateRetry(_ context.Context, _ int64, _ int, _ string, _ time.Time) error {
	return nil
}

func newService(tokens *fakeTokenRepo, box *fakeOutboxRepo) *PushService {
	return MustNewPushService(
		WithPushTokenRepository(tokens),
		WithOutboxRepository(box),
	)
}

func decodeBatch(t *testing.T, msg outbox.Message) outbox.PushBatch {
	t.Helper()
	var b outbox.PushBatch
	if err := json.Unmarshal(msg.Payload, &b); err != nil {
		t.Fatalf("decode push batch: %v", err)
	}
	return b
}

func TestBroadcastDedupsTokens(t *testing.T) {
	box := &fakeOutboxRepo{}
	svc := newService(&fakeTokenRepo{tokens: []string{"t1", "t2", "t1", "", "t3", "t2"}}, box)

	svc.Broadcast(context.Background(), "Title", "Body")

	if len(box.inserted) != 1 {
		t.Fatalf("expected one outbox row, got %d", len(box.inserted))
	}
	b := decodeBatch(t, box.inserted[0])
	if len(b.Tokens) != 3 {
		t.Fatalf("tokens = %v, want 3 unique", b.Tokens)
	}
	if b.Title != "Title" || b.Body != "Body" {
		t.Fatalf("batch = %+v", b)
	}
}

func TestBroadcastBatchesAtProviderLimit(t *testing.T) {
	tokens := make([]string, batchSize+250)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("token-%d", i)
	}

	box := &fakeOutboxRepo{}
	svc := newService(&fakeTokenRepo{tokens: tokens}, box)

	svc.Broadcast(context.Background(), "Title", "Body")

	if len(box.inserted) != 2 {
		t.Fatalf("expected 2 outbox rows, got %d", len(box.inserted))
	}
	first := decodeBatch(t, box.inserted[0])
	second := decodeBatch(t, box.inserted[1])
	if len(first.Tokens) != batchSize {
		t.Fatalf("first batch size = %d", len(first.Tokens))
	}
	if len(second.Tokens) != 250 {
		t.Fatalf("second batch size = %d", len(second.Tokens))
	}
}

func TestBroadcastNoTokensNoRows(t *testing.T) {
	box := &fakeOutboxRepo{}
	svc := newService(&fakeTokenRepo{}, box)

	svc.Broadcast(context.Background(), "Title", "Body")

	if len(box.inserted) != 0 {
		t.Fatalf("expected no outbox rows, got %d", len(box.inserted))
	}
}

func TestBroadcastListFailureIsSwallowed(t *testing.T) {
	box := &fakeOutboxRepo{}
	svc := newService(&fakeTokenRepo{err: errors.New("socket closed")}, box)

	// Must not panic or write anything.
	svc.Broadcast(context.Background(), "Title", "Body")

	if len(box.inserted) != 0 {
		t.Fatalf("expected no outbox rows, got %d", len(box.inserted))
	}
}
