// Package bot содержит главный модуль бота: polling обновлений,
// маршрутизацию сообщений и отправку ответов.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"tabel-bot/internal/bot/middleware"
	"tabel-bot/internal/common"
	"tabel-bot/internal/config"
	"tabel-bot/internal/features/admin"
	"tabel-bot/internal/features/registration"
	"tabel-bot/internal/features/status"
	"tabel-bot/internal/storage"
)

// Bot — главная структура, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	rateLimiter *middleware.RateLimiter

	registrationService *registration.Service
	statusService       *status.Service
	adminService        *admin.Service
	adminHandler        *admin.Handler

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	registrationService *registration.Service,
	statusService *status.Service,
	adminService *admin.Service,
	adminHandler *admin.Handler,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:                 api,
		cfg:                 cfg,
		rateLimiter:         middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		registrationService: registrationService,
		statusService:       statusService,
		adminService:        adminService,
		adminHandler:        adminHandler,
		inflight:            make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				b.rateLimiter.Close()
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	message := update.Message

	// Бот работает только в личных сообщениях.
	if !message.Chat.IsPrivate() {
		return
	}

	middleware.LogMessage(message)

	if message.From == nil {
		return
	}
	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID
	text := strings.TrimSpace(message.Text)

	// Незавершённый диалог регистрации перехватывает любой ввод,
	// кроме /start (он начинает диалог заново).
	if b.registrationService.InProgress(userID) && text != "/start" {
		b.handleRegistrationStep(ctx, chatID, userID, text)
		return
	}

	// Диалоги и кнопки админ-панели.
	if b.adminHandler.HandleMessage(ctx, chatID, userID, text) {
		return
	}

	switch {
	case text == "/start":
		b.handleStart(ctx, chatID, userID)

	case text == "/status" || text == status.ButtonMyStatus:
		b.handleMyStatus(ctx, chatID, userID)

	case text == "/admin" || text == "Админ" || text == "Панель":
		b.handleAdminCommand(ctx, chatID, userID)

	case status.IsKnownLabel(text):
		b.handleSetStatus(ctx, chatID, userID, text)

	default:
		b.handleFreeText(ctx, chatID, userID, text)
	}
}

// handleStart приветствует зарегистрированного сотрудника или
// запускает диалог регистрации.
func (b *Bot) handleStart(ctx context.Context, chatID, userID int64) {
	registered, err := b.registrationService.IsRegistered(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка проверки регистрации")
		b.sendMessage(chatID, "⚠️ Что-то пошло не так, попробуйте ещё раз")
		return
	}

	if !registered {
		reply := b.registrationService.Begin(userID)
		b.sendMessage(chatID, reply.Text)
		return
	}

	b.sendWithStatusKeyboard(ctx, chatID, userID, "Выберите ваш статус на сегодня:")
}

// handleRegistrationStep прогоняет ввод через машину состояний регистрации.
func (b *Bot) handleRegistrationStep(ctx context.Context, chatID, userID int64, text string) {
	reply, err := b.registrationService.Step(ctx, userID, text)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка шага регистрации")
		b.sendMessage(chatID, "⚠️ Не удалось сохранить данные, отправьте ещё раз")
		return
	}

	if reply.Done {
		b.sendWithStatusKeyboard(ctx, chatID, userID, reply.Text)
		return
	}
	b.sendMessage(chatID, reply.Text)
}

// handleSetStatus сохраняет статус, выбранный кнопкой.
func (b *Bot) handleSetStatus(ctx context.Context, chatID, userID int64, label string) {
	day, err := b.statusService.SetToday(ctx, userID, label)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			reply := b.registrationService.Begin(userID)
			b.sendMessage(chatID, "Сначала нужно зарегистрироваться.\n\n"+reply.Text)
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("Ошибка сохранения статуса")
		b.sendMessage(chatID, "⚠️ Не удалось сохранить статус, попробуйте ещё раз")
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("✅ Статус на %s записан: %s", common.FormatDate(day), label))
}

// handleFreeText обрабатывает произвольный текст.
// Для зарегистрированного сотрудника это статус «своими словами».
func (b *Bot) handleFreeText(ctx context.Context, chatID, userID int64, text string) {
	registered, err := b.registrationService.IsRegistered(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка проверки регистрации")
		b.sendMessage(chatID, "⚠️ Что-то пошло не так, попробуйте ещё раз")
		return
	}
	if !registered {
		reply := b.registrationService.Begin(userID)
		b.sendMessage(chatID, reply.Text)
		return
	}

	b.handleSetStatus(ctx, chatID, userID, text)
}

// handleMyStatus показывает статус на сегодня.
func (b *Bot) handleMyStatus(ctx context.Context, chatID, userID int64) {
	registered, err := b.registrationService.IsRegistered(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка проверки регистрации")
		b.sendMessage(chatID, "⚠️ Что-то пошло не так, попробуйте ещё раз")
		return
	}
	if !registered {
		b.sendMessage(chatID, "Вы ещё не зарегистрированы. Отправьте /start")
		return
	}

	label, day, err := b.statusService.TodayStatus(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка чтения статуса")
		b.sendMessage(chatID, "⚠️ Что-то пошло не так, попробуйте ещё раз")
		return
	}
	if label == "" {
		b.sendMessage(chatID, fmt.Sprintf("На %s статус ещё не отмечен. Выберите его кнопкой ниже.", common.FormatDate(day)))
		return
	}

	text := fmt.Sprintf("📋 Ваш статус на %s: %s", common.FormatDate(day), label)
	if history, err := b.statusService.History(ctx, userID); err == nil && len(history) > 0 {
		text += fmt.Sprintf("\nВсего отмечено: %d %s", len(history), common.PluralizeDays(len(history)))
	}
	b.sendMessage(chatID, text)
}

// handleAdminCommand открывает админ-панель.
func (b *Bot) handleAdminCommand(ctx context.Context, chatID, userID int64) {
	if !b.adminService.IsAdmin(ctx, userID) {
		b.sendMessage(chatID, "⛔ Команда доступна только администраторам")
		return
	}
	b.adminHandler.ShowKeyboard(userID, chatID)
}

// sendWithStatusKeyboard отправляет текст вместе с клавиатурой статусов.
func (b *Bot) sendWithStatusKeyboard(ctx context.Context, chatID, userID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = statusKeyboard(b.adminService.IsAdmin(ctx, userID))
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// statusKeyboard собирает клавиатуру выбора статуса.
// Админам добавляется кнопка входа в панель.
func statusKeyboard(isAdmin bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(status.LabelWork),
			tgbotapi.NewKeyboardButton(status.LabelVacation),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(status.LabelSick),
			tgbotapi.NewKeyboardButton(status.LabelTrip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(status.LabelDayOff),
			tgbotapi.NewKeyboardButton(status.ButtonMyStatus),
		),
	}
	if isAdmin {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Панель"),
		))
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToUser отправляет сообщение пользователю (для напоминаний и рассылок).
func (b *Bot) SendMessageToUser(userID int64, text string) error {
	if _, err := b.api.Send(tgbotapi.NewMessage(userID, text)); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
		return err
	}
	return nil
}
