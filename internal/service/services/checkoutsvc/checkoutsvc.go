package checkoutsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/easey-git/easey-app-sub001/internal/dal/interfaces/icheckoutrepo"
	"github.com/easey-git/easey-app-sub001/internal/service/models/checkout"
	"github.com/easey-git/easey-app-sub001/internal/service/models/event"
	"github.com/easey-git/easey-app-sub001/internal/service/models/message"
	"github.com/easey-git/easey-app-sub001/pkg/phone"
)

// messenger is the outbound messaging capability this service needs.
type messenger interface {
	SendTemplate(ctx context.Context, phone, phoneNormalized string, tmpl message.Template, params []string) error
}

// CheckoutService tracks pre-order shopping sessions and drives
// cart-recovery messaging. It exclusively owns checkout documents.
type CheckoutService struct {
	checkoutRepo icheckoutrepo.ICheckoutRepository
	messenger    messenger
}

// option is a function that configures the CheckoutService.
type option func(*CheckoutService)

// MustNewCheckoutService creates a new CheckoutService.
func MustNewCheckoutService(opts ...option) *CheckoutService {
	s := &CheckoutService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.checkoutRepo == nil {
		panic("checkoutsvc: checkout repository is required")
	}
	if s.messenger == nil {
		panic("checkoutsvc: messenger is required")
	}

	return s
}

// WithCheckoutRepository sets the checkout repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCheckoutRepository(repo icheckoutrepo.ICheckoutRepository) option {
	return func(s *CheckoutService) {
		s.checkoutRepo = repo
	}
}

// WithMessenger sets the messenger.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMessenger(m messenger) option {
	return func(s *CheckoutService) {
		s.messenger = m
	}
}

// Record merge-upserts a checkout document for a cart webhook tick. The
// session is marked ABANDONED only when the sender flags it explicitly; an
// abandonment with a positive cart value and a resolvable phone triggers one
// cart-recovery message, guarded so duplicate abandonment pings cannot send
// it twice.
func (s *CheckoutService) Record(ctx context.Context, ev *event.CartEvent, raw []byte, abandoned bool) error {
	id := ev.CartID.String()
	if id == "" {
		id = ev.CartToken
	}
	if id == "" {
		// Synthetic key for carts that never got an identifier.
		id = "cart_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}

	eventType := checkout.EventActiveCart
	if abandoned {
		eventType = checkout.EventAbandoned
	}

	phoneNormalized := phone.Normalize(ev.BestPhone())

	c := checkout.Checkout{
		ID:              id,
		EventType:       eventType,
		CartToken:       ev.CartToken,
		PhoneNormalized: phoneNormalized,
		Email:           ev.Email,
		FirstName:       ev.FirstName,
		TotalPrice:      ev.TotalPrice.String(),
		Payload:         json.RawMessage(raw),
		UpdatedAt:       time.Now(),
	}
	if err := s.checkoutRepo.Upsert(ctx, c); err != nil {
		return fmt.Errorf("failed to record checkout: %w", err)
	}

	if abandoned && positivePrice(ev.TotalPrice.String()) && phoneNormalized != "" {
		s.sendRecovery(ctx, c)
	}

	return nil
}

func (s *CheckoutService) sendRecovery(ctx context.Context, c checkout.Checkout) {
	won, err := s.checkoutRepo.MarkRecoverySent(ctx, c.ID)
	if err != nil {
		slog.Error("Failed to acquire recovery guard", "checkout_id", c.ID, "error", err)
		return
	}
	if !won {
		slog.Info("Recovery message already sent for checkout", "checkout_id", c.ID)
		return
	}

	err = s.messenger.SendTemplate(ctx, c.PhoneNormalized, c.PhoneNormalized,
		message.TemplateCartRecovery, []string{c.FirstName, c.TotalPrice})
	if err != nil {
		slog.Error("Failed to send cart recovery message", "checkout_id", c.ID, "error", err)
	}
}

// CleanupForOrder deletes every checkout correlated with a just-created
// order, so stale abandonment messages cannot follow a purchase. The three
// lookups run in parallel and the delete happens once, deduplicated by id.
func (s *CheckoutService) CleanupForOrder(ctx context.Context, cartToken, email, phoneNormalized string) error {
	g, gctx := errgroup.WithContext(ctx)

	results := make([][]string, 3)
	lookups := []struct {
		key  string
		find func(context.Context, string) ([]string, error)
	}{
		{cartToken, s.checkoutRepo.FindIDsByCartToken},
		{email, s.checkoutRepo.FindIDsByEmail},
		{phoneNormalized, s.checkoutRepo.FindIDsByPhone},
	}

	for i, l := range lookups {
		if l.key == "" {
			continue
		}
		i, l := i, l
		g.Go(func() error {
			ids, err := l.find(gctx, l.key)
			if err != nil {
				return err
			}
			results[i] = ids
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to look up checkouts for cleanup: %w", err)
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, batch := range results {
		for _, id := range batch {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return nil
	}

	if err := s.checkoutRepo.DeleteByIDs(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete checkouts: %w", err)
	}

	slog.Info("Cleaned up checkouts after order creation", "count", len(ids))

	return nil
}

func positivePrice(s string) bool {
	if s == "" {
		return false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}

	return v > 0
}
