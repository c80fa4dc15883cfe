package imessagerepo

import (
	"context"

	"github.com/easey-git/easey-app-sub001/internal/service/models/message"
)

// IMessageRepository is an interface for the WhatsApp message log. The log is
// append-only from the send path; status callbacks patch an existing record
// by its gateway-assigned id and never create a new one.
type IMessageRepository interface {
	Insert(ctx context.Context, m message.Message) (int64, error)
	UpdateStatusByWhatsappID(ctx context.Context, whatsappID string, status message.DeliveryStatus) error
}
