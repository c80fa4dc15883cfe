package lifecyclesvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/easey-git/easey-app-sub001/internal/dal/interfaces/iorderrepo"
	"github.com/easey-git/easey-app-sub001/internal/service/models/event"
	"github.com/easey-git/easey-app-sub001/internal/service/models/intent"
	"github.com/easey-git/easey-app-sub001/internal/service/models/message"
	"github.com/easey-git/easey-app-sub001/internal/service/models/order"
	"github.com/easey-git/easey-app-sub001/pkg/phone"
)

// UnitOfWork scopes repository calls to one transaction. Guarded state
// transitions read the order fresh inside the transaction and write only
// when the guard holds.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	Orders() iorderrepo.IOrderRepository
}

// messenger is the outbound messaging capability.
type messenger interface {
	SendTemplate(ctx context.Context, phone, phoneNormalized string, tmpl message.Template, params []string) error
	LogInbound(ctx context.Context, phone, phoneNormalized, msgType, body, whatsappID string) error
	UpdateStatus(ctx context.Context, whatsappID, status string) error
}

// broadcaster fans a notification out to registered devices, best-effort.
type broadcaster interface {
	Broadcast(ctx context.Context, title, body string)
}

// cleaner removes checkout documents made stale by a purchase.
type cleaner interface {
	CleanupForOrder(ctx context.Context, cartToken, email, phoneNormalized string) error
}

// LifecycleService drives an order through its COD confirmation states. It
// exclusively owns verificationStatus and whatsappSent writes. Template
// sends always happen after the transaction commits: delivery is slow,
// non-idempotent and must never hold a row lock or be rolled back together
// with the state change.
type LifecycleService struct {
	newUOW    func() UnitOfWork
	messenger messenger
	push      broadcaster
	cleaner   cleaner
	resolver  intent.Resolver
}

// option is a function that configures the LifecycleService.
type option func(*LifecycleService)

// MustNewLifecycleService creates a new LifecycleService.
func MustNewLifecycleService(opts ...option) *LifecycleService {
	s := &LifecycleService{
		resolver: intent.NewPhraseResolver(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("lifecyclesvc: unit of work factory is required")
	}
	if s.messenger == nil {
		panic("lifecyclesvc: messenger is required")
	}

	return s
}

// WithUnitOfWorkFactory sets the unit of work factory.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(f func() UnitOfWork) option {
	return func(s *LifecycleService) {
		s.newUOW = f
	}
}

// WithMessenger sets the messenger.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMessenger(m messenger) option {
	return func(s *LifecycleService) {
		s.messenger = m
	}
}

// WithBroadcaster sets the push fan-out.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithBroadcaster(b broadcaster) option {
	return func(s *LifecycleService) {
		s.push = b
	}
}

// WithCleaner sets the checkout cleanup collaborator.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCleaner(c cleaner) option {
	return func(s *LifecycleService) {
		s.cleaner = c
	}
}

// WithIntentResolver overrides the default phrase resolver.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithIntentResolver(r intent.Resolver) option {
	return func(s *LifecycleService) {
		s.resolver = r
	}
}

// HandleOrderCreated ingests an order-created webhook: idempotent upsert
// keyed by the external order id, then — for COD orders — the at-most-once
// confirmation send, guarded by a transactional check-and-set on the
// whatsappSent flag so a duplicate webhook delivery cannot send twice.
func (s *LifecycleService) HandleOrderCreated(ctx context.Context, ev *event.OrderEvent) error {
	now := time.Now()

	rawPhone := ev.BestPhone()
	status := order.StatusPaid
	if ev.IsCOD() {
		status = order.StatusCOD
	}

	o := order.Order{
		ID:                 ev.ID.String(),
		OrderNumber:        ev.OrderNumber.String(),
		TotalPrice:         ev.TotalPrice.String(),
		CustomerName:       ev.CustomerName(),
		Email:              ev.BestEmail(),
		Phone:              rawPhone,
		PhoneNormalized:    phone.Normalize(rawPhone),
		Status:             status,
		VerificationStatus: order.VerificationNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if ev.ShippingAddress != nil {
		o.Address1 = ev.ShippingAddress.Address1
		o.City = ev.ShippingAddress.City
		o.State = ev.ShippingAddress.Province
		o.Zip = ev.ShippingAddress.Zip
	}
	for _, li := range ev.LineItems {
		o.Items = append(o.Items, order.Item{
			Name:     li.Title,
			Quantity: li.Quantity,
			Price:    li.Price.String(),
		})
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin order creation: %w", err)
	}
	defer func() { _ = work.Rollback(ctx) }()

	inserted, err := work.Orders().Upsert(ctx, o)
	if err != nil {
		return err
	}

	shouldSend := false
	if status == order.StatusCOD {
		fresh, err := work.Orders().GetByIDForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}
		if !fresh.WhatsappSent {
			if err := work.Orders().MarkWhatsappSent(ctx, o.ID); err != nil {
				return err
			}
			shouldSend = true
		} else {
			slog.Info("COD confirmation already sent, skipping", "order_id", o.ID)
		}
	}

	if err := work.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order creation: %w", err)
	}

	if shouldSend {
		s.send(ctx, &o, message.TemplateCODAutoConfirmation,
			[]string{o.CustomerName, o.OrderNumber, o.TotalPrice})
	}

	if s.cleaner != nil {
		if err := s.cleaner.CleanupForOrder(ctx, ev.CartToken, o.Email, o.PhoneNormalized); err != nil {
			slog.Error("Checkout cleanup failed after order creation", "order_id", o.ID, "error", err)
		}
	}

	if inserted && s.push != nil {
		go func() {
			pushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.push.Broadcast(pushCtx, "New order "+o.OrderNumber,
				fmt.Sprintf("%s placed an order for %s", o.CustomerName, o.TotalPrice))
		}()
	}

	return nil
}

// HandleInboundMessage logs the customer's message, resolves the order it
// refers to, and applies the matching state transition. A message with no
// recognizable intent or no matching COD order is a deliberate no-op: most
// inbound replies are casual chat.
func (s *LifecycleService) HandleInboundMessage(ctx context.Context, env *event.Envelope) error {
	msg, _ := env.FirstMessage()
	if msg == nil {
		return nil
	}

	normalized := phone.Normalize(msg.From)
	body := msg.BodyText()

	// Durability before side effects: record the message even if nothing
	// below acts on it.
	if err := s.messenger.LogInbound(ctx, msg.From, normalized, msg.Type, body, msg.ID); err != nil {
		slog.Error("Failed to log inbound message", "error", err)
	}

	it := s.resolver.Resolve(body)
	if it == intent.IntentNone {
		return nil
	}

	work := s.newUOW()
	ord, err := work.Orders().LatestCOD(ctx, normalized)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			slog.Debug("No COD order for inbound reply", "phone_normalized", normalized)
			return nil
		}
		return err
	}

	switch it {
	case intent.IntentConfirm:
		return s.confirm(ctx, ord)
	case intent.IntentAddressOK:
		return s.approveAddress(ctx, ord)
	case intent.IntentAddressEdit:
		return s.requestAddressChange(ctx, ord)
	case intent.IntentCancel:
		return s.cancel(ctx, ord)
	}

	return nil
}

// confirm transitions none -> verified_pending_address under a transactional
// guard, then asks the customer to confirm the shipping address.
func (s *LifecycleService) confirm(ctx context.Context, ord *order.Order) error {
	advanced, fresh, err := s.guardedTransition(ctx, ord.ID, func(vs order.VerificationStatus) bool {
		return vs != order.VerificationPendingAddress && !vs.Terminal()
	}, order.VerificationPendingAddress)
	if err != nil {
		return err
	}
	if !advanced {
		slog.Info("Order already confirmed, skipping", "order_id", ord.ID)
		return nil
	}

	s.send(ctx, fresh, message.TemplateConfirmAutoSchedule,
		[]string{fresh.OrderNumber, fresh.AddressLine(), fresh.Zip, fresh.Phone})

	return nil
}

// approveAddress transitions to the approved terminal state under a
// transactional guard and sends the final COD confirmation.
func (s *LifecycleService) approveAddress(ctx context.Context, ord *order.Order) error {
	advanced, fresh, err := s.guardedTransition(ctx, ord.ID, func(vs order.VerificationStatus) bool {
		return !vs.Terminal()
	}, order.VerificationApproved)
	if err != nil {
		return err
	}
	if !advanced {
		slog.Info("Order already approved or cancelled, skipping", "order_id", ord.ID)
		return nil
	}

	s.send(ctx, fresh, message.TemplateCODConfirmed, []string{fresh.OrderNumber})

	return nil
}

// requestAddressChange is not idempotency-critical, so it skips the
// transactional guard; re-applying it is harmless.
func (s *LifecycleService) requestAddressChange(ctx context.Context, ord *order.Order) error {
	if ord.VerificationStatus.Terminal() {
		return nil
	}

	work := s.newUOW()
	if err := work.Orders().SetVerificationStatus(ctx, ord.ID, order.VerificationAddressChange); err != nil {
		return err
	}

	s.send(ctx, ord, message.TemplateUpdateAddress, []string{ord.OrderNumber})

	return nil
}

func (s *LifecycleService) cancel(ctx context.Context, ord *order.Order) error {
	if ord.VerificationStatus.Terminal() {
		return nil
	}

	work := s.newUOW()
	if err := work.Orders().Cancel(ctx, ord.ID); err != nil {
		return err
	}

	s.send(ctx, ord, message.TemplateCODCancel, []string{ord.OrderNumber})

	return nil
}

// guardedTransition runs one transactional read-check-write: the order is
// read fresh inside the transaction and the new status written only if guard
// approves the current one. Returns whether the write happened plus the
// order as read inside the transaction.
func (s *LifecycleService) guardedTransition(
	ctx context.Context,
	orderID string,
	guard func(order.VerificationStatus) bool,
	next order.VerificationStatus,
) (bool, *order.Order, error) {
	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return false, nil, fmt.Errorf("failed to begin transition: %w", err)
	}
	defer func() { _ = work.Rollback(ctx) }()

	fresh, err := work.Orders().GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return false, nil, err
	}

	if !guard(fresh.VerificationStatus) {
		// Guard already satisfied: idempotent success, not an error.
		return false, fresh, work.Commit(ctx)
	}

	if err := work.Orders().SetVerificationStatus(ctx, orderID, next); err != nil {
		return false, nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return false, nil, fmt.Errorf("failed to commit transition: %w", err)
	}

	fresh.VerificationStatus = next

	return true, fresh, nil
}

// HandleStatusUpdate patches the delivery status of an outbound message.
func (s *LifecycleService) HandleStatusUpdate(ctx context.Context, env *event.Envelope) error {
	st := env.FirstStatus()
	if st == nil {
		return nil
	}

	if err := s.messenger.UpdateStatus(ctx, st.ID, st.Status); err != nil {
		if errors.Is(err, message.ErrNotFound) {
			slog.Debug("Status callback for unknown message", "whatsapp_id", st.ID)
			return nil
		}
		return err
	}

	return nil
}

// HandlePaymentConfirmed marks an order paid after the payment gateway
// verified the transaction. Cancelled orders stay cancelled.
func (s *LifecycleService) HandlePaymentConfirmed(ctx context.Context, orderID string) error {
	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin payment confirmation: %w", err)
	}
	defer func() { _ = work.Rollback(ctx) }()

	fresh, err := work.Orders().GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return err
	}

	if fresh.Status == order.StatusCancelled {
		slog.Info("Payment confirmed for cancelled order, ignoring", "order_id", orderID)
		return work.Commit(ctx)
	}
	if fresh.Status == order.StatusPaid {
		return work.Commit(ctx)
	}

	if err := work.Orders().MarkPaid(ctx, orderID); err != nil {
		return err
	}

	return work.Commit(ctx)
}

// QueryOrders lists orders for the operations read surface.
func (s *LifecycleService) QueryOrders(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	return s.newUOW().Orders().Query(ctx, filter)
}

// GetOrder retrieves one order by its external id.
func (s *LifecycleService) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	return s.newUOW().Orders().GetByID(ctx, id)
}

// send delivers a template after the state change has committed. Failures
// are logged and swallowed: a failed delivery must not corrupt order state
// consistency, and rolling back committed state to match a failed send would
// be worse.
func (s *LifecycleService) send(ctx context.Context, ord *order.Order, tmpl message.Template, params []string) {
	err := s.messenger.SendTemplate(ctx, ord.Phone, ord.PhoneNormalized, tmpl, params)
	if err != nil {
		slog.Error("Failed to send template", "order_id", ord.ID, "template", tmpl, "error", err)
	}
}
