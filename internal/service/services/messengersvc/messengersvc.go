package messengersvc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/easey-git/easey-app-sub001/internal/dal/interfaces/imessagerepo"
	"github.com/easey-git/easey-app-sub001/internal/service/models/message"
)

// gateway is the outbound messaging capability.
type gateway interface {
	SendTemplate(ctx context.Context, to string, tmpl message.Template, params []string) (string, error)
}

// MessengerService sends templated WhatsApp messages and owns the message
// log: exactly one record per outbound send, inbound messages recorded
// verbatim, status callbacks patched onto the original record.
type MessengerService struct {
	gateway     gateway
	messageRepo imessagerepo.IMessageRepository
}

// option is a function that configures the MessengerService.
type option func(*MessengerService)

// MustNewMessengerService creates a new MessengerService.
func MustNewMessengerService(opts ...option) *MessengerService {
	s := &MessengerService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.gateway == nil {
		panic("messengersvc: gateway is required")
	}
	if s.messageRepo == nil {
		panic("messengersvc: message repository is required")
	}

	return s
}

// WithGateway sets the messaging gateway.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithGateway(g gateway) option {
	return func(s *MessengerService) {
		s.gateway = g
	}
}

// WithMessageRepository sets the message log repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMessageRepository(repo imessagerepo.IMessageRepository) option {
	return func(s *MessengerService) {
		s.messageRepo = repo
	}
}

// SendTemplate delivers one templated message and appends its log record.
// The record is written whether the send succeeded or failed, so the log
// stays a complete account of attempted contact.
func (s *MessengerService) SendTemplate(
	ctx context.Context,
	phone string,
	phoneNormalized string,
	tmpl message.Template,
	params []string,
) error {
	waID, sendErr := s.gateway.SendTemplate(ctx, phoneNormalized, tmpl, params)

	record := message.Message{
		Phone:           phone,
		PhoneNormalized: phoneNormalized,
		Direction:       message.DirectionOutbound,
		Type:            "template",
		Body:            strings.Join(params, " | "),
		TemplateName:    tmpl,
		Status:          message.StatusSent,
		WhatsappID:      waID,
		Timestamp:       time.Now(),
	}
	if sendErr != nil {
		record.Status = message.StatusFailed
	}

	if _, err := s.messageRepo.Insert(ctx, record); err != nil {
		slog.Error("Failed to log outbound message",
			"template", tmpl, "phone_normalized", phoneNormalized, "error", err)
	}

	if sendErr != nil {
		return fmt.Errorf("failed to send %s template: %w", tmpl, sendErr)
	}

	return nil
}

// LogInbound records a customer message before any action is taken on it.
func (s *MessengerService) LogInbound(
	ctx context.Context,
	phone string,
	phoneNormalized string,
	msgType string,
	body string,
	whatsappID string,
) error {
	_, err := s.messageRepo.Insert(ctx, message.Message{
		Phone:           phone,
		PhoneNormalized: phoneNormalized,
		Direction:       message.DirectionInbound,
		Type:            msgType,
		Body:            body,
		WhatsappID:      whatsappID,
		Timestamp:       time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to log inbound message: %w", err)
	}

	return nil
}

// UpdateStatus patches the delivery status of a previously sent message.
// Unknown status strings are ignored.
func (s *MessengerService) UpdateStatus(ctx context.Context, whatsappID, status string) error {
	var ds message.DeliveryStatus
	switch status {
	case "sent":
		ds = message.StatusSent
	case "delivered":
		ds = message.StatusDelivered
	case "read":
		ds = message.StatusRead
	case "failed":
		ds = message.StatusFailed
	default:
		slog.Debug("Ignoring unknown delivery status", "status", status, "whatsapp_id", whatsappID)
		return nil
	}

	return s.messageRepo.UpdateStatusByWhatsappID(ctx, whatsappID, ds)
}
