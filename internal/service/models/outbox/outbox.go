package outbox

import (
	"time"
)

// Message is a best-effort side effect persisted for asynchronous dispatch.
// Push-notification batches are written here by the fan-out service and
// drained to RabbitMQ by the dispatch worker; a row that keeps failing is
// retried with exponential backoff until MaxRetries is reached.
type Message struct {
	ID          int64
	QueueName   string
	Payload     []byte
	ContentType string
	RetryCount  int
	MaxRetries  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt time.Time
}

// PushBatch is the payload of one push-broadcast outbox row: a deduplicated
// slice of device tokens bounded by the provider's per-call limit.
type PushBatch struct {
	Tokens []string `json:"tokens"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
}
