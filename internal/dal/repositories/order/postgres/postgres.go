package postgresrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/easey-git/easey-app-sub001/internal/dal/postgres"
	"github.com/easey-git/easey-app-sub001/internal/service/models/order"
)

// OrderDal represents order data access layer model
type OrderDal struct {
	OrderID            string    `db:"order_id"`
	OrderNumber        string    `db:"order_number"`
	TotalPrice         string    `db:"total_price"`
	CustomerName       string    `db:"customer_name"`
	Email              string    `db:"email"`
	Phone              string    `db:"phone"`
	PhoneNormalized    string    `db:"phone_normalized"`
	Status             string    `db:"status"`
	VerificationStatus string    `db:"verification_status"`
	WhatsappSent       bool      `db:"whatsapp_sent"`
	Address1           string    `db:"address1"`
	City               string    `db:"city"`
	State              string    `db:"state"`
	Zip                string    `db:"zip"`
	Items              []byte    `db:"items"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// ToModel converts OrderDal to the service layer Order model
func (o *OrderDal) ToModel() (*order.Order, error) {
	var items []order.Item
	if len(o.Items) > 0 {
		if err := json.Unmarshal(o.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to decode order items: %w", err)
		}
	}

	return &order.Order{
		ID:                 o.OrderID,
		OrderNumber:        o.OrderNumber,
		TotalPrice:         o.TotalPrice,
		CustomerName:       o.CustomerName,
		Email:              o.Email,
		Phone:              o.Phone,
		PhoneNormalized:    o.PhoneNormalized,
		Status:             order.Status(o.Status),
		VerificationStatus: order.VerificationStatus(o.VerificationStatus),
		WhatsappSent:       o.WhatsappSent,
		Address1:           o.Address1,
		City:               o.City,
		State:              o.State,
		Zip:                o.Zip,
		Items:              items,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}, nil
}

const orderColumns = `order_id, order_number, total_price, customer_name, email, phone,
	phone_normalized, status, verification_status, whatsapp_sent,
	address1, city, state, zip, items, created_at, updated_at`

type OrderRepository struct {
	conn postgres.DBTX
}

func NewOrderRepository(conn postgres.DBTX) *OrderRepository {
	return &OrderRepository{
		conn: conn,
	}
}

// Upsert inserts an order keyed by its external id. A duplicate delivery of
// the same order-created webhook hits the conflict clause and inserts
// nothing; the return value reports whether a row was actually written.
func (r *OrderRepository) Upsert(ctx context.Context, o order.Order) (bool, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return false, fmt.Errorf("failed to encode order items: %w", err)
	}

	query, args, err := sq.Insert("orders").
		Columns(
			"order_id",
			"order_number",
			"total_price",
			"customer_name",
			"email",
			"phone",
			"phone_normalized",
			"status",
			"verification_status",
			"whatsapp_sent",
			"address1",
			"city",
			"state",
			"zip",
			"items",
			"created_at",
			"updated_at",
		).
		Values(
			o.ID,
			o.OrderNumber,
			o.TotalPrice,
			o.CustomerName,
			o.Email,
			o.Phone,
			o.PhoneNormalized,
			o.Status,
			o.VerificationStatus,
			o.WhatsappSent,
			o.Address1,
			o.City,
			o.State,
			o.Zip,
			items,
			o.CreatedAt,
			o.UpdatedAt,
		).
		Suffix("ON CONFLICT (order_id) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build upsert query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to upsert order: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// GetByID retrieves a single order by its external id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate retrieves an order with a row lock. Only meaningful
// inside a transaction.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id string) (*order.Order, error) {
	return r.getByID(ctx, id, true)
}

func (r *OrderRepository) getByID(ctx context.Context, id string, forUpdate bool) (*order.Order, error) {
	builder := sq.Select(orderColumns).
		From("orders").
		Where(sq.Eq{"order_id": id}).
		PlaceholderFormat(sq.Dollar)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	dal, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}

	return dal.ToModel()
}

// LatestCOD returns the most recent COD order for a normalized phone. This is
// a best-effort heuristic: with multiple concurrent COD orders only the
// newest one is addressable by chat.
func (r *OrderRepository) LatestCOD(ctx context.Context, phoneNormalized string) (*order.Order, error) {
	query, args, err := sq.Select(orderColumns).
		From("orders").
		Where(sq.Eq{"phone_normalized": phoneNormalized, "status": order.StatusCOD}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build latest cod query: %w", err)
	}

	dal, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query latest cod order: %w", err)
	}

	return dal.ToModel()
}

// SetVerificationStatus updates the verification status of an order.
func (r *OrderRepository) SetVerificationStatus(
	ctx context.Context,
	id string,
	vs order.VerificationStatus,
) error {
	return r.update(ctx, id, sq.Eq{"verification_status": vs})
}

// MarkWhatsappSent flips the at-most-once COD confirmation flag.
func (r *OrderRepository) MarkWhatsappSent(ctx context.Context, id string) error {
	return r.update(ctx, id, sq.Eq{"whatsapp_sent": true})
}

// Cancel sets both the order status and the verification status to their
// cancelled terminal values.
func (r *OrderRepository) Cancel(ctx context.Context, id string) error {
	return r.update(ctx, id, sq.Eq{
		"status":              order.StatusCancelled,
		"verification_status": order.VerificationCancelled,
	})
}

// MarkPaid records a successful payment-gateway confirmation.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string) error {
	return r.update(ctx, id, sq.Eq{"status": order.StatusPaid})
}

func (r *OrderRepository) update(ctx context.Context, id string, set map[string]interface{}) error {
	builder := sq.Update("orders").
		Set("updated_at", time.Now()).
		Where(sq.Eq{"order_id": id}).
		PlaceholderFormat(sq.Dollar)
	for col, val := range set {
		builder = builder.Set(col, val)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}

	return nil
}

// Query retrieves orders based on filter criteria.
func (r *OrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	builder := sq.Select(orderColumns).
		From("orders").
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"order_id": filter.Ids})
	}
	if filter.PhoneNormalized != "" {
		builder = builder.Where(sq.Eq{"phone_normalized": filter.PhoneNormalized})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		dal, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, err
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*OrderDal, error) {
	dal := OrderDal{}
	err := row.Scan(
		&dal.OrderID,
		&dal.OrderNumber,
		&dal.TotalPrice,
		&dal.CustomerName,
		&dal.Email,
		&dal.Phone,
		&dal.PhoneNormalized,
		&dal.Status,
		&dal.VerificationStatus,
		&dal.WhatsappSent,
		&dal.Address1,
		&dal.City,
		&dal.State,
		&dal.Zip,
		&dal.Items,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &dal, nil
}
