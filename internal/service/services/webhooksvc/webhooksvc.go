package webhooksvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/easey-git/easey-app-sub001/internal/service/models/event"
)

// lifecycle is the order state machine surface.
type lifecycle interface {
	HandleOrderCreated(ctx context.Context, ev *event.OrderEvent) error
	HandleInboundMessage(ctx context.Context, env *event.Envelope) error
	HandleStatusUpdate(ctx context.Context, env *event.Envelope) error
}

// recorder is the cart/checkout tracking surface.
type recorder interface {
	Record(ctx context.Context, ev *event.CartEvent, raw []byte, abandoned bool) error
}

// WebhookService classifies inbound webhook payloads and routes them to the
// owning service. Unrecognized shapes resolve to a silent no-op so webhook
// senders never see an error for payloads we don't understand.
type WebhookService struct {
	lifecycle lifecycle
	recorder  recorder
	validate  *validator.Validate
}

// option is a function that configures the WebhookService.
type option func(*WebhookService)

// MustNewWebhookService creates a new WebhookService.
func MustNewWebhookService(opts ...option) *WebhookService {
	s := &WebhookService{
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.lifecycle == nil {
		panic("webhooksvc: lifecycle service is required")
	}
	if s.recorder == nil {
		panic("webhooksvc: checkout recorder is required")
	}

	return s
}

// WithLifecycle sets the order lifecycle service.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithLifecycle(l lifecycle) option {
	return func(s *WebhookService) {
		s.lifecycle = l
	}
}

// WithRecorder sets the checkout recorder.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRecorder(r recorder) option {
	return func(s *WebhookService) {
		s.recorder = r
	}
}

// Process routes one webhook delivery. A nil return means the payload was
// handled or deliberately ignored; an error means an unexpected internal
// failure the transport may surface as a 500.
func (s *WebhookService) Process(ctx context.Context, body []byte, query url.Values) error {
	kind := event.Classify(body, query)

	switch kind {
	case event.KindWhatsAppMessage:
		var env event.Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("failed to decode whatsapp envelope: %w", err)
		}
		return s.lifecycle.HandleInboundMessage(ctx, &env)

	case event.KindWhatsAppStatus:
		var env event.Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("failed to decode whatsapp envelope: %w", err)
		}
		return s.lifecycle.HandleStatusUpdate(ctx, &env)

	case event.KindCart:
		var ev event.CartEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("failed to decode cart event: %w", err)
		}
		abandoned := query.Get("abandoned") == "1"
		return s.recorder.Record(ctx, &ev, body, abandoned)

	case event.KindOrder:
		var ev event.OrderEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("failed to decode order event: %w", err)
		}
		if err := s.validate.Struct(&ev); err != nil {
			// A malformed order payload is not retryable by the sender;
			// acknowledge and keep the details in our logs.
			slog.Error("Order event failed validation", "error", err)
			return nil
		}
		return s.lifecycle.HandleOrderCreated(ctx, &ev)

	default:
		slog.Debug("Unrecognized webhook payload, acknowledging", "bytes", len(body))
		return nil
	}
}
