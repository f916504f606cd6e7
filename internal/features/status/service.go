// service.go — бизнес-логика журнала статусов: запись «на сегодня»,
// чтение своего статуса и рассылка напоминаний не отметившимся.
package status

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"tabel-bot/internal/common"
	"tabel-bot/internal/storage"
)

// Store — нужная журналу статусов часть хранилища.
type Store interface {
	SetStatus(ctx context.Context, userID int64, day time.Time, label string) error
	GetStatus(ctx context.Context, userID int64, day time.Time) (string, error)
	History(ctx context.Context, userID int64) ([]storage.StatusEntry, error)
	StatsFor(ctx context.Context, day time.Time) (map[string]int, error)
	UsersMissingStatus(ctx context.Context, day time.Time) ([]*storage.User, error)
}

// Service управляет журналом статусов.
type Service struct {
	store Store
	loc   *time.Location
}

// NewService создаёт сервис статусов. loc определяет, что такое «сегодня».
func NewService(store Store, loc *time.Location) *Service {
	return &Service{store: store, loc: loc}
}

// Today возвращает текущую дату в рабочем часовом поясе.
func (s *Service) Today() time.Time {
	return common.Today(s.loc)
}

// SetToday записывает статус сотрудника на сегодня. Возвращает дату записи.
// Повторная запись за день перезаписывает метку; для незарегистрированного
// id хранилище вернёт storage.ErrUserNotFound.
func (s *Service) SetToday(ctx context.Context, userID int64, label string) (time.Time, error) {
	day := s.Today()
	if err := s.store.SetStatus(ctx, userID, day, label); err != nil {
		return day, err
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"label":   label,
	}).Debug("Статус записан")
	return day, nil
}

// TodayStatus возвращает статус сотрудника на сегодня ("" — не отмечен).
func (s *Service) TodayStatus(ctx context.Context, userID int64) (string, time.Time, error) {
	day := s.Today()
	label, err := s.store.GetStatus(ctx, userID, day)
	return label, day, err
}

// History возвращает все записи сотрудника по возрастанию даты.
func (s *Service) History(ctx context.Context, userID int64) ([]storage.StatusEntry, error) {
	return s.store.History(ctx, userID)
}

// DailySummary собирает сводку за день: метка → число сотрудников,
// плюс список не отметившихся.
func (s *Service) DailySummary(ctx context.Context, day time.Time) (map[string]int, []*storage.User, error) {
	stats, err := s.store.StatsFor(ctx, day)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка сводки за %s: %w", common.FormatDate(day), err)
	}
	missing, err := s.store.UsersMissingStatus(ctx, day)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка сводки за %s: %w", common.FormatDate(day), err)
	}
	return stats, missing, nil
}

// SendReminders рассылает напоминание всем, кто не отметил статус на сегодня.
// Ошибка доставки одному получателю (заблокировал бота и т.п.) просто
// подсчитывается — остальная рассылка продолжается.
func (s *Service) SendReminders(ctx context.Context, send common.SendFunc) (sent, failed int, err error) {
	missing, err := s.store.UsersMissingStatus(ctx, s.Today())
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка выборки не отметившихся: %w", err)
	}

	const text = "📣 Напоминание: вы ещё не отметили статус на сегодня.\nОтправьте /start и выберите статус."

	for _, u := range missing {
		if err := send(u.UserID, text); err != nil {
			failed++
			log.WithError(err).WithField("user_id", u.UserID).Debug("Напоминание не доставлено")
			continue
		}
		sent++
	}

	log.WithFields(log.Fields{
		"sent":   sent,
		"failed": failed,
	}).Info("Напоминания разосланы")
	return sent, failed, nil
}
