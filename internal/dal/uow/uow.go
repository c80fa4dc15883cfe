package uow

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/easey-git/easey-app-sub001/internal/dal/interfaces/iorderrepo"
	"github.com/easey-git/easey-app-sub001/internal/dal/postgres"
	orderrepo "github.com/easey-git/easey-app-sub001/internal/dal/repositories/order/postgres"
)

// UnitOfWork scopes repository calls to one transaction. Before Begin the
// repository runs against the pool directly, which is what read-only callers
// use; after Begin it is rebound to the transaction so guarded
// read-modify-write sequences are isolated per order document.
type UnitOfWork struct {
	client    *postgres.Client
	tx        pgx.Tx
	orderRepo iorderrepo.IOrderRepository
}

func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	return &UnitOfWork{
		client:    client,
		orderRepo: orderrepo.NewOrderRepository(client.Pool()),
	}
}

func (u *UnitOfWork) Orders() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.orderRepo = orderrepo.NewOrderRepository(tx)

	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Commit(ctx)
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Rollback(ctx)
}
