package webhooksvc

import (
	"context"
	"net/url"
	"testing"

	"github.com/easey-git/easey-app-sub001/internal/service/models/event"
)

type fakeLifecycle struct {
	orders   []*event.OrderEvent
	messages []*event.Envelope
	statuses []*event.Envelope
}

func (f *fakeLifecycle) HandleOrderCreated(_ context.Context, ev *event.OrderEvent) error {
	f.orders = append(f.orders, ev)
	return nil
}

func (f *fakeLifecycle) HandleInboundMessage(_ context.Context, env *event.Envelope) error {
	f.messages = append(f.messages, env)
	return nil
}

func (f *fakeLifecycle) HandleStatusUpdate(_ context.Context, env *event.Envelope) error {
	f.statuses = append(f.statuses, env)
	return nil
}

type fakeRecorder struct {
	carts     []*event.CartEvent
	abandoned []bool
}

func (f *fakeRecorder) Record(_ context.Context, ev *event.CartEvent, _ []byte, abandoned bool) error {
	f.carts = append(f.carts, ev)
	f.abandoned = append(f.abandoned, abandoned)
	return nil
}

func setup() (*WebhookService, *fakeLifecycle, *fakeRecorder) {
	lc := &fakeLifecycle{}
	rec := &fakeRecorder{}
	svc := MustNewWebhookService(WithLifecycle(lc), WithRecorder(rec))
	return svc, lc, rec
}

func TestProcessRoutesWhatsAppMessage(t *testing.T) {
	svc, lc, _ := setup()

	body := []byte(`{"object":"whatsapp_business_account","entry":[{"changes":[{"value":
		{"messages":[{"id":"wamid.1","from":"919876543210","type":"text","text":{"body":"Yes"}}]}}]}]}`)

	if err := svc.Process(context.Background(), body, url.Values{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(lc.messages) != 1 {
		t.Fatalf("expected one inbound message, got %d", len(lc.messages))
	}
}

func TestProcessRoutesWhatsAppStatus(t *testing.T) {
	svc, lc, _ := setup()

	body := []byte(`{"object":"whatsapp_business_account","entry":[{"changes":[{"value":
		{"statuses":[{"id":"wamid.1","status":"delivered"}]}}]}]}`)

	if err := svc.Process(context.Background(), body, url.Values{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(lc.statuses) != 1 {
		t.Fatalf("expected one status update, got %d", len(lc.statuses))
	}
	if len(lc.messages) != 0 {
		t.Fatal("status payload must not route as a message")
	}
}

func TestProcessRoutesCart(t *testing.T) {
	svc, _, rec := setup()

	body := []byte(`{"cart_id":"abc123","phone_number":"9000000000","total_price":"500"}`)
	query := url.Values{"abandoned": []string{"1"}}

	if err := svc.Process(context.Background(), body, query); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(rec.carts) != 1 {
		t.Fatalf("expected one cart record, got %d", len(rec.carts))
	}
	if !rec.abandoned[0] {
		t.Fatal("abandoned=1 query flag not propagated")
	}
}

func TestProcessCartWithoutAbandonedFlag(t *testing.T) {
	svc, _, rec := setup()

	body := []byte(`{"cart_id":"abc123","latest_stage":"shipping"}`)
	if err := svc.Process(context.Background(), body, url.Values{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(rec.abandoned) != 1 || rec.abandoned[0] {
		t.Fatalf("cart without flag must record as active, got %v", rec.abandoned)
	}
}

func TestProcessRoutesOrder(t *testing.T) {
	svc, lc, _ := setup()

	body := []byte(`{"id":555,"order_number":42,"total_price":"999.00","gateway":"Cash on Delivery"}`)
	if err := svc.Process(context.Background(), body, url.Values{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(lc.orders) != 1 {
		t.Fatalf("expected one order event, got %d", len(lc.orders))
	}
	if lc.orders[0].ID.String() != "555" {
		t.Fatalf("order id = %q", lc.orders[0].ID.String())
	}
}

func TestProcessInvalidOrderIsInertAck(t *testing.T) {
	svc, lc, _ := setup()

	// order_number present makes it classify as an order, but id is missing.
	body := []byte(`{"order_number":42}`)
	if err := svc.Process(context.Background(), body, url.Values{}); err != nil {
		t.Fatalf("invalid order must not error: %v", err)
	}
	if len(lc.orders) != 0 {
		t.Fatal("invalid order must not reach the lifecycle service")
	}
}

func TestProcessUnknownPayloadIsInertAck(t *testing.T) {
	svc, lc, rec := setup()

	if err := svc.Process(context.Background(), []byte(`{"hello":"world"}`), url.Values{}); err != nil {
		t.Fatalf("unknown payload must not error: %v", err)
	}
	if len(lc.orders)+len(lc.messages)+len(lc.statuses)+len(rec.carts) != 0 {
		t.Fatal("unknown payload must not route anywhere")
	}
}

func TestProcessMalformedJSONErrors(t *testing.T) {
	svc, _, _ := setup()

	// An unparseable body classifies as unknown and is acknowledged.
	if err := svc.Process(context.Background(), []byte(`{not json`), url.Values{}); err != nil {
		t.Fatalf("malformed body must be acknowledged: %v", err)
	}
}
