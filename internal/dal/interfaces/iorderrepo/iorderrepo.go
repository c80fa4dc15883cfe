package iorderrepo

import (
	"context"

	"github.com/easey-git/easey-app-sub001/internal/service/models/order"
)

// IOrderRepository is an interface for the order repository. The ForUpdate
// variants lock the row and are only meaningful inside a unit of work.
type IOrderRepository interface {
	// Upsert inserts the order if its id is not yet known; duplicate webhook
	// deliveries are absorbed. Reports whether a row was inserted.
	Upsert(ctx context.Context, o order.Order) (bool, error)

	GetByID(ctx context.Context, id string) (*order.Order, error)
	GetByIDForUpdate(ctx context.Context, id string) (*order.Order, error)

	// LatestCOD resolves the most recent COD order for a normalized phone,
	// ordered by creation time descending. Returns order.ErrNotFound when the
	// phone has no COD order.
	LatestCOD(ctx context.Context, phoneNormalized string) (*order.Order, error)

	SetVerificationStatus(ctx context.Context, id string, vs order.VerificationStatus) error
	MarkWhatsappSent(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	MarkPaid(ctx context.Context, id string) error

	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
}
