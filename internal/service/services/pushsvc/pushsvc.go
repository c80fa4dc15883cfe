package pushsvc

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/easey-git/easey-app-sub001/internal/dal/interfaces/ipushtokenrepo"
	"github.com/easey-git/easey-app-sub001/internal/dal/interfaces/ioutboxrepo"
	"github.com/easey-git/easey-app-sub001/internal/service/models/outbox"
)

// batchSize is the push provider's per-call token limit.
const batchSize = 500

const defaultMaxRetries = 5

// PushService broadcasts notifications to every registered device. The whole
// path is fire-and-forget: batches are written to the outbox and drained by
// the dispatch worker, and no failure here ever reaches the caller.
type PushService struct {
	tokenRepo  ipushtokenrepo.IPushTokenRepository
	outboxRepo ioutboxrepo.IOutboxRepository
	queueName  string
}

// option is a function that configures the PushService.
type option func(*PushService)

// MustNewPushService creates a new PushService.
func MustNewPushService(opts ...option) *PushService {
	queueName := viper.GetString("rabbitmq.push_queue")
	if queueName == "" {
		queueName = "push.broadcast"
	}

	s := &PushService{queueName: queueName}
	for _, opt := range opts {
		opt(s)
	}

	if s.tokenRepo == nil {
		panic("pushsvc: push token repository is required")
	}
	if s.outboxRepo == nil {
		panic("pushsvc: outbox repository is required")
	}

	return s
}

// WithPushTokenRepository sets the device token repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPushTokenRepository(repo ipushtokenrepo.IPushTokenRepository) option {
	return func(s *PushService) {
		s.tokenRepo = repo
	}
}

// WithOutboxRepository sets the outbox repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOutboxRepository(repo ioutboxrepo.IOutboxRepository) option {
	return func(s *PushService) {
		s.outboxRepo = repo
	}
}

// Broadcast queues a notification for every registered device, deduplicated
// and batched at the provider limit. Errors are logged and dropped.
func (s *PushService) Broadcast(ctx context.Context, title, body string) {
	tokens, err := s.tokenRepo.List(ctx)
	if err != nil {
		slog.Error("Failed to list push tokens for broadcast", "error", err)
		return
	}

	deduped := dedup(tokens)
	if len(deduped) == 0 {
		return
	}

	now := time.Now()
	for start := 0; start < len(deduped); start += batchSize {
		end := start + batchSize
		if end > len(deduped) {
			end = len(deduped)
		}

		payload, err := json.Marshal(outbox.PushBatch{
			Tokens: deduped[start:end],
			Title:  title,
			Body:   body,
		})
		if err != nil {
			slog.Error("Failed to encode push batch", "error", err)
			continue
		}

		msg := outbox.Message{
			QueueName:   s.queueName,
			Payload:     payload,
			ContentType: "application/json",
			MaxRetries:  defaultMaxRetries,
			CreatedAt:   now,
			UpdatedAt:   now,
			NextRetryAt: now,
		}
		if err := s.outboxRepo.Insert(ctx, msg); err != nil {
			slog.Error("Failed to enqueue push batch", "error", err, "tokens", end-start)
		}
	}
}

func dedup(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out
}
