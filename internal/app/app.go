// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт хранилище, сервисы, обработчики
// и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"tabel-bot/internal/bot"
	"tabel-bot/internal/common"
	"tabel-bot/internal/config"
	"tabel-bot/internal/features/admin"
	"tabel-bot/internal/features/registration"
	"tabel-bot/internal/features/status"
	"tabel-bot/internal/jobs"
	"tabel-bot/internal/storage"
	"tabel-bot/internal/storage/memory"
	"tabel-bot/internal/storage/postgres"
	"tabel-bot/internal/storage/sqlite"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Store     storage.Store
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc := common.Location(cfg.AppTimezone)

	// === 1. Хранилище ===
	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Сервисы ===
	registrationService := registration.NewService(store)
	statusService := status.NewService(store, loc)
	adminService := admin.NewService(store, cfg.CreatorID, loc)

	// === 4. Обработчики ===
	adminHandler := admin.NewHandler(adminService, statusService, botAPI)

	// === 5. Собираем бота ===
	b := bot.New(botAPI, cfg, registrationService, statusService, adminService, adminHandler)

	// === 6. Планировщик напоминаний ===
	scheduler := jobs.NewScheduler(
		statusService, loc,
		cfg.ReminderHour, cfg.ReminderMinute,
		b.SendMessageToUser,
	)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Store:     store,
		BotAPI:    botAPI,
	}, nil
}

// newStore выбирает реализацию хранилища по конфигурации.
func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg)
	case config.DriverSQLite:
		return sqlite.New(ctx, cfg.SQLitePath)
	case config.DriverMemory:
		log.Warn("STORAGE_DRIVER=memory: данные не переживут перезапуск")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("неизвестный STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

// Close освобождает ресурсы приложения.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		log.WithError(err).Error("Ошибка закрытия хранилища")
	}
}
