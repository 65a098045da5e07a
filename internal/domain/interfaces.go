package domain

import (
	"context"
	"time"

	"tably/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SessionRepository stores per-client UI state with a TTL.
type SessionRepository interface {
	GetSession(ctx context.Context, sessionID string) (*models.SessionState, error)
	SetSession(ctx context.Context, state *models.SessionState) error
	ClearSession(ctx context.Context, sessionID string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Archive persists day sheets and reference data wholesale. The in-memory
// store remains the session's source of truth.
type Archive interface {
	SaveDaySheet(ctx context.Context, date string, reservations []models.Reservation) error
	LoadDaySheet(ctx context.Context, date string) ([]models.Reservation, error)
	SaveSectors(ctx context.Context, sectors []models.Sector) error
	LoadSectors(ctx context.Context) ([]models.Sector, error)
	SaveTables(ctx context.Context, tables []models.Table) error
	LoadTables(ctx context.Context) ([]models.Table, error)
}

// EventPublisher fans domain events out to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// TelegramSender is the slice of the Telegram bot API the notifier needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}
