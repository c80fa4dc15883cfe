package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/easey-git/easey-app-sub001/internal/dal/postgres"
	"github.com/easey-git/easey-app-sub001/internal/service/models/message"
)

// MessageRepository is the append-only WhatsApp message log.
type MessageRepository struct {
	conn postgres.DBTX
}

func NewMessageRepository(conn postgres.DBTX) *MessageRepository {
	return &MessageRepository{
		conn: conn,
	}
}

// Insert appends one message record and returns its id.
func (r *MessageRepository) Insert(ctx context.Context, m message.Message) (int64, error) {
	query, args, err := sq.Insert("whatsapp_messages").
		Columns(
			"phone",
			"phone_normalized",
			"direction",
			"type",
			"body",
			"template_name",
			"status",
			"whatsapp_id",
			"ts",
		).
		Values(
			m.Phone,
			m.PhoneNormalized,
			m.Direction,
			m.Type,
			m.Body,
			m.TemplateName,
			m.Status,
			m.WhatsappID,
			m.Timestamp,
		).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build message insert query: %w", err)
	}

	var id int64
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}

	return id, nil
}

// UpdateStatusByWhatsappID patches the delivery status of the outbound record
// the gateway callback refers to.
func (r *MessageRepository) UpdateStatusByWhatsappID(
	ctx context.Context,
	whatsappID string,
	status message.DeliveryStatus,
) error {
	query, args, err := sq.Update("whatsapp_messages").
		Set("status", status).
		Where(sq.Eq{"whatsapp_id": whatsappID, "direction": message.DirectionOutbound}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build status update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update message status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return message.ErrNotFound
	}

	return nil
}
