package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/easey-git/easey-app-sub001/internal/dal/postgres"
	"github.com/easey-git/easey-app-sub001/internal/service/models/checkout"
)

// CheckoutRepository persists checkout (cart) documents.
type CheckoutRepository struct {
	conn postgres.DBTX
}

func NewCheckoutRepository(conn postgres.DBTX) *CheckoutRepository {
	return &CheckoutRepository{
		conn: conn,
	}
}

// Upsert merge-writes a checkout document. Empty incoming fields keep the
// previously stored value, mirroring a merge-set on a document store.
func (r *CheckoutRepository) Upsert(ctx context.Context, c checkout.Checkout) error {
	query, args, err := sq.Insert("checkouts").
		Columns(
			"id",
			"event_type",
			"cart_token",
			"phone_normalized",
			"email",
			"first_name",
			"total_price",
			"payload",
			"updated_at",
		).
		Values(
			c.ID,
			c.EventType,
			c.CartToken,
			c.PhoneNormalized,
			c.Email,
			c.FirstName,
			c.TotalPrice,
			[]byte(c.Payload),
			c.UpdatedAt,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			event_type = EXCLUDED.event_type,
			cart_token = COALESCE(NULLIF(EXCLUDED.cart_token, ''), checkouts.cart_token),
			phone_normalized = COALESCE(NULLIF(EXCLUDED.phone_normalized, ''), checkouts.phone_normalized),
			email = COALESCE(NULLIF(EXCLUDED.email, ''), checkouts.email),
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), checkouts.first_name),
			total_price = COALESCE(NULLIF(EXCLUDED.total_price, ''), checkouts.total_price),
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build checkout upsert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert checkout: %w", err)
	}

	return nil
}

// GetByID retrieves a checkout document.
func (r *CheckoutRepository) GetByID(ctx context.Context, id string) (*checkout.Checkout, error) {
	query, args, err := sq.Select(
		"id",
		"event_type",
		"cart_token",
		"phone_normalized",
		"email",
		"first_name",
		"total_price",
		"recovery_sent",
		"payload",
		"updated_at",
	).
		From("checkouts").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build checkout select query: %w", err)
	}

	var c checkout.Checkout
	var payload []byte
	err = r.conn.QueryRow(ctx, query, args...).Scan(
		&c.ID,
		&c.EventType,
		&c.CartToken,
		&c.PhoneNormalized,
		&c.Email,
		&c.FirstName,
		&c.TotalPrice,
		&c.RecoverySent,
		&payload,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout %s: %w", id, err)
	}
	c.Payload = payload

	return &c, nil
}

// MarkRecoverySent flips the recovery guard for a checkout. The WHERE clause
// makes the flip race-safe: only one caller observes true.
func (r *CheckoutRepository) MarkRecoverySent(ctx context.Context, id string) (bool, error) {
	query, args, err := sq.Update("checkouts").
		Set("recovery_sent", true).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id, "recovery_sent": false}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build recovery guard query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to mark recovery sent: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// FindIDsByCartToken lists checkout ids correlated by cart token.
func (r *CheckoutRepository) FindIDsByCartToken(ctx context.Context, token string) ([]string, error) {
	return r.findIDs(ctx, sq.Eq{"cart_token": token})
}

// FindIDsByEmail lists checkout ids correlated by email.
func (r *CheckoutRepository) FindIDsByEmail(ctx context.Context, email string) ([]string, error) {
	return r.findIDs(ctx, sq.Eq{"email": email})
}

// FindIDsByPhone lists checkout ids correlated by normalized phone.
func (r *CheckoutRepository) FindIDsByPhone(ctx context.Context, phoneNormalized string) ([]string, error) {
	return r.findIDs(ctx, sq.Eq{"phone_normalized": phoneNormalized})
}

func (r *CheckoutRepository) findIDs(ctx context.Context, where sq.Eq) ([]string, error) {
	query, args, err := sq.Select("id").
		From("checkouts").
		Where(where).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build checkout lookup query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to look up checkouts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan checkout id: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return ids, nil
}

// DeleteByIDs removes checkout documents in a single batch.
func (r *CheckoutRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sq.Delete("checkouts").
		Where(sq.Eq{"id": ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build checkout delete query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete checkouts: %w", err)
	}

	return nil
}
