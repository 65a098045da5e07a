// Package notify pushes reservation events to the managers' Telegram chats.
package notify

import (
	"encoding/json"
	"fmt"

	"tably/internal/domain"
	"tably/internal/events"
	"tably/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier relays selected reservation events to manager chats.
type TelegramNotifier struct {
	sender       domain.TelegramSender
	managerChats []int64
	logger       *zerolog.Logger
}

func NewTelegramNotifier(sender domain.TelegramSender, managerChats []int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:       sender,
		managerChats: managerChats,
		logger:       logger,
	}
}

// SubscribeTo registers the notifier on the bus for the events managers
// care about.
func (n *TelegramNotifier) SubscribeTo(bus *events.EventBus) {
	bus.Subscribe(events.EventReservationCreated, n.handle)
	bus.Subscribe(events.EventReservationStatusChanged, n.handle)
	bus.Subscribe(events.EventReservationDeleted, n.handle)
}

func (n *TelegramNotifier) handle(event *events.Event) error {
	var payload events.ReservationEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		n.logger.Error().Err(err).Str("event_type", event.Type).Msg("decode event payload")
		return err
	}

	text := formatMessage(event.Type, payload)
	for _, chatID := range n.managerChats {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.sender.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send telegram notification")
		}
	}
	return nil
}

func formatMessage(eventType string, p events.ReservationEventPayload) string {
	when := p.StartTime.Format("02.01 15:04")

	switch eventType {
	case events.EventReservationCreated:
		return fmt.Sprintf("🆕 Reservation: %s, party of %d, table %s, %s", p.CustomerName, p.PartySize, p.TableID, when)
	case events.EventReservationDeleted:
		return fmt.Sprintf("🗑 Removed: %s, table %s, %s", p.CustomerName, p.TableID, when)
	case events.EventReservationStatusChanged:
		icon := statusIcon(p.Status)
		return fmt.Sprintf("%s %s: %s, table %s, %s", icon, statusLabel(p.Status), p.CustomerName, p.TableID, when)
	default:
		return fmt.Sprintf("Reservation %s: %s", p.ReservationID, eventType)
	}
}

func statusIcon(status string) string {
	switch status {
	case models.StatusConfirmed, models.StatusFinished:
		return "✅"
	case models.StatusSeated:
		return "🍽"
	case models.StatusPending:
		return "⏳"
	case models.StatusNoShow, models.StatusCancelled:
		return "❌"
	default:
		return "❓"
	}
}

func statusLabel(status string) string {
	switch status {
	case models.StatusNoShow:
		return "No-show"
	case models.StatusCancelled:
		return "Cancelled"
	case models.StatusSeated:
		return "Seated"
	case models.StatusConfirmed:
		return "Confirmed"
	case models.StatusFinished:
		return "Finished"
	default:
		return status
	}
}
