package notification

import (
	"fmt"

	"center-booking-service/internal/models/config"
	"center-booking-service/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

// telegramDispatcher шлет уведомления о записях в настроенные чаты.
// Доставка at-least-once: сбой логируется, но не влияет на бронирование.
type telegramDispatcher struct {
	api     *tgbotapi.BotAPI
	chatIDs []int64
	logger  *zap.Logger
}

func NewTelegramDispatcher(logger *zap.Logger) (service.NotificationDispatcher, error) {
	cfg := config.AppConfig.Notify

	if cfg.Disabled {
		logger.Info("notifications disabled: no bot token configured")
		return NewNoopDispatcher(logger), nil
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	api.Debug = cfg.Debug

	logger.Info("notification bot initialized",
		zap.String("bot", api.Self.UserName),
		zap.Int("chats", len(cfg.ChatIDs)))

	return &telegramDispatcher{
		api:     api,
		chatIDs: cfg.ChatIDs,
		logger:  logger,
	}, nil
}

func (d *telegramDispatcher) NotifyBooked(event service.BookingEvent) {
	text := fmt.Sprintf("✅ %s %s записан(а) на занятие '%s' %s в %s",
		event.User.FirstName, event.User.LastName,
		event.Schedule.SectionName,
		event.Schedule.Date.Format("02.01.2006"),
		event.Schedule.StartClock())
	d.send(event, text)
}

func (d *telegramDispatcher) NotifyCanceled(event service.BookingEvent) {
	text := fmt.Sprintf("❌ %s %s отменил(а) запись на занятие '%s' %s в %s",
		event.User.FirstName, event.User.LastName,
		event.Schedule.SectionName,
		event.Schedule.Date.Format("02.01.2006"),
		event.Schedule.StartClock())
	d.send(event, text)
}

func (d *telegramDispatcher) NotifyReminder(event service.BookingEvent) {
	text := fmt.Sprintf("⏰ Напоминание: занятие '%s' для %s %s начнется в %s. Будьте готовы!",
		event.Schedule.SectionName,
		event.User.FirstName, event.User.LastName,
		event.Schedule.StartClock())
	d.send(event, text)
}

func (d *telegramDispatcher) send(event service.BookingEvent, text string) {
	for _, chatID := range d.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := d.api.Send(msg); err != nil {
			d.logger.Warn("failed to send notification",
				zap.String("event_id", event.EventID),
				zap.Int64("chat_id", chatID),
				zap.Error(err))
		}
	}
}
