package icheckoutrepo

import (
	"context"

	"github.com/easey-git/easey-app-sub001/internal/service/models/checkout"
)

// ICheckoutRepository is an interface for the checkout repository.
type ICheckoutRepository interface {
	// Upsert merge-writes a checkout document; existing fields not present in
	// the update are preserved.
	Upsert(ctx context.Context, c checkout.Checkout) error

	GetByID(ctx context.Context, id string) (*checkout.Checkout, error)

	// MarkRecoverySent flips the recovery guard and reports whether this call
	// won the flip (false means a recovery message was already sent).
	MarkRecoverySent(ctx context.Context, id string) (bool, error)

	FindIDsByCartToken(ctx context.Context, token string) ([]string, error)
	FindIDsByEmail(ctx context.Context, email string) ([]string, error)
	FindIDsByPhone(ctx context.Context, phoneNormalized string) ([]string, error)

	DeleteByIDs(ctx context.Context, ids []string) error
}
