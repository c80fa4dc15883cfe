package messengersvc

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/easey-git/easey-app-sub001/internal/service/models/message"
)

type fakeGateway struct {
	err   error
	calls int
}

func (g *fakeGateway) SendTemplate(_ context.Context, _ string, _ message.Template, _ []string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return "wamid.sent", nil
}

type memMessageRepo struct {
	mu       sync.Mutex
	messages []message.Message
	nextID   int64
}

func (r *memMessageRepo) Insert(_ context.Context, m message.Message) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	r.messages = append(r.messages, m)
	return m.ID, nil
}

func (r *memMessageRepo) UpdateStatusByWhatsappID(_ context.Context, whatsappID string, status message.DeliveryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.messages {
		if m.WhatsappID == whatsappID && m.Direction == message.DirectionOutbound {
			r.messages[i].Status = status
			return nil
		}
	}
	return message.ErrNotFound
}

func setup(gateway *fakeGateway) (*MessengerService, *memMessageRepo) {
	repo := &memMessageRepo{}
	svc := MustNewMessengerService(
		WithGateway(gateway),
		WithMessageRepository(repo),
	)
	return svc, repo
}

func TestSendTemplateLogsSuccess(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(&fakeGateway{})

	err := svc.SendTemplate(ctx, "9876543210", "919876543210",
		message.TemplateCODAutoConfirmation, []string{"Asha", "1001", "999.00"})
	if err != nil {
		t.Fatalf("SendTemplate: %v", err)
	}

	if len(repo.messages) != 1 {
		t.Fatalf("expected one log record, got %d", len(repo.messages))
	}
	m := repo.messages[0]
	if m.Direction != message.DirectionOutbound || m.Status != message.StatusSent {
		t.Fatalf("record = %+v", m)
	}
	if m.WhatsappID != "wamid.sent" {
		t.Fatalf("whatsappID = %q", m.WhatsappID)
	}
	if m.Body != "Asha | 1001 | 999.00" {
		t.Fatalf("body = %q", m.Body)
	}
}

func TestSendTemplateLogsFailure(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(&fakeGateway{err: errors.New("rate limited")})

	err := svc.SendTemplate(ctx, "9876543210", "919876543210",
		message.TemplateCODCancel, []string{"1001"})
	if err == nil {
		t.Fatal("expected error from failed send")
	}

	// The failed attempt still gets a log record.
	if len(repo.messages) != 1 {
		t.Fatalf("expected one log record, got %d", len(repo.messages))
	}
	if got := repo.messages[0].Status; got != message.StatusFailed {
		t.Fatalf("status = %q", got)
	}
}

func TestLogInbound(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(&fakeGateway{})

	if err := svc.LogInbound(ctx, "919876543210", "919876543210", "text", "hello", "wamid.in"); err != nil {
		t.Fatalf("LogInbound: %v", err)
	}

	if len(repo.messages) != 1 {
		t.Fatalf("expected one record, got %d", len(repo.messages))
	}
	m := repo.messages[0]
	if m.Direction != message.DirectionInbound || m.Body != "hello" {
		t.Fatalf("record = %+v", m)
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(&fakeGateway{})

	if err := svc.SendTemplate(ctx, "9876543210", "919876543210",
		message.TemplateCODConfirmed, []string{"1001"}); err != nil {
		t.Fatalf("SendTemplate: %v", err)
	}

	if err := svc.UpdateStatus(ctx, "wamid.sent", "delivered"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got := repo.messages[0].Status; got != message.StatusDelivered {
		t.Fatalf("status = %q", got)
	}

	// Unknown statuses are ignored without touching the record.
	if err := svc.UpdateStatus(ctx, "wamid.sent", "seen_by_pigeon"); err != nil {
		t.Fatalf("UpdateStatus unknown: %v", err)
	}
	if got := repo.messages[0].Status; got != message.StatusDelivered {
		t.Fatalf("status after unknown update = %q", got)
	}

	// Unknown message ids surface ErrNotFound.
	if err := svc.UpdateStatus(ctx, "wamid.missing", "read"); !errors.Is(err, message.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
