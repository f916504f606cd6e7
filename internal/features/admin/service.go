// service.go — операции админ-панели и проверки прав.
// Каждая операция гейтится: либо флаг is_admin, либо id создателя.
// Выдача и снятие прав — только создателю: админы не могут плодить админов.
package admin

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tabel-bot/internal/common"
	"tabel-bot/internal/report"
	"tabel-bot/internal/storage"
)

// stateTTL — сколько живёт брошенный диалог панели.
const stateTTL = 5 * time.Minute

// BroadcastResult — итог рассылки: сколько дошло и сколько нет.
type BroadcastResult struct {
	Sent   int
	Failed int
}

// Service управляет админ-панелью.
type Service struct {
	store     storage.Store
	creatorID int64
	loc       *time.Location

	statesMu sync.RWMutex
	states   map[int64]*PanelState
}

// NewService создаёт сервис админ-панели. creatorID читается из конфигурации
// один раз на старте.
func NewService(store storage.Store, creatorID int64, loc *time.Location) *Service {
	return &Service{
		store:     store,
		creatorID: creatorID,
		loc:       loc,
		states:    make(map[int64]*PanelState),
	}
}

// --- Права ---

// IsCreator сообщает, является ли пользователь создателем бота.
func (s *Service) IsCreator(userID int64) bool {
	return userID == s.creatorID
}

// Now возвращает текущее время в рабочем часовом поясе.
// Панель использует его для «текущего месяца» в экспорте и сводке за день.
func (s *Service) Now() time.Time {
	return time.Now().In(s.loc)
}

// IsAdmin сообщает, открыта ли пользователю админ-панель.
// Создатель — всегда админ, даже без записи в справочнике.
func (s *Service) IsAdmin(ctx context.Context, userID int64) bool {
	if s.IsCreator(userID) {
		return true
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Ошибка проверки прав")
		return false
	}
	return u != nil && u.IsAdmin
}

func (s *Service) requireAdmin(ctx context.Context, actorID int64) error {
	if !s.IsAdmin(ctx, actorID) {
		return storage.ErrPermissionDenied
	}
	return nil
}

// --- Операции ---

// ListUsers возвращает всех сотрудников (по ФИО) для админского списка.
func (s *Service) ListUsers(ctx context.Context, actorID int64) ([]*storage.User, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

// SetAdmin выдаёт или снимает права. Доступно ТОЛЬКО создателю —
// обычный админ не может назначить другого админа.
func (s *Service) SetAdmin(ctx context.Context, actorID, targetID int64, isAdmin bool) error {
	if !s.IsCreator(actorID) {
		return storage.ErrPermissionDenied
	}
	if targetID == s.creatorID {
		return fmt.Errorf("права создателя изменить нельзя")
	}
	return s.store.SetAdmin(ctx, targetID, isAdmin)
}

// DeleteUser удаляет сотрудника вместе со всеми его статусами.
// Создателя и действующих админов удалять нельзя.
func (s *Service) DeleteUser(ctx context.Context, actorID, targetID int64) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if targetID == s.creatorID {
		return storage.ErrProtectedUser
	}
	target, err := s.store.GetUser(ctx, targetID)
	if err != nil {
		return err
	}
	if target != nil && target.IsAdmin {
		return storage.ErrProtectedUser
	}
	if err := s.store.DeleteUser(ctx, targetID); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"target_id": targetID,
		"actor_id":  actorID,
	}).Info("Сотрудник удалён")
	return nil
}

// Broadcast отправляет текст каждому сотруднику по отдельности.
// Ошибка доставки одному получателю подсчитывается и НЕ прерывает рассылку:
// все N отправок выполняются независимо от более ранних отказов.
func (s *Service) Broadcast(ctx context.Context, actorID int64, text string, send common.SendFunc) (BroadcastResult, error) {
	var res BroadcastResult
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return res, err
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return res, fmt.Errorf("ошибка выборки получателей: %w", err)
	}

	for _, u := range users {
		if err := send(u.UserID, text); err != nil {
			res.Failed++
			log.WithError(err).WithField("user_id", u.UserID).Debug("Рассылка не доставлена")
			continue
		}
		res.Sent++
	}

	log.WithFields(log.Fields{
		"sent":   res.Sent,
		"failed": res.Failed,
	}).Info("Рассылка завершена")
	return res, nil
}

// MonthReport собирает табель за месяц и сериализует его в .xlsx.
// Возвращает содержимое файла и его имя.
func (s *Service) MonthReport(ctx context.Context, actorID int64, year int, month time.Month) ([]byte, string, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, "", err
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка выборки сотрудников: %w", err)
	}

	var entries []storage.StatusEntry
	for _, u := range users {
		history, err := s.store.History(ctx, u.UserID)
		if err != nil {
			return nil, "", fmt.Errorf("ошибка истории сотрудника %d: %w", u.UserID, err)
		}
		entries = append(entries, history...)
	}

	matrix := report.BuildMonthMatrix(users, entries, year, month)
	data, err := report.RenderXLSX(matrix)
	if err != nil {
		return nil, "", err
	}
	return data, matrix.FileName(), nil
}

// --- Состояния диалогов панели ---

// GetState возвращает текущее состояние диалога панели (nil — нет или истёк).
func (s *Service) GetState(userID int64) *PanelState {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	state, ok := s.states[userID]
	if !ok || time.Now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// SetState запоминает состояние диалога с таймаутом.
func (s *Service) SetState(userID int64, stateName string, users []*storage.User) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	s.states[userID] = &PanelState{
		State:     stateName,
		Users:     users,
		ExpiresAt: time.Now().Add(stateTTL),
	}
}

// ClearState сбрасывает диалог панели.
func (s *Service) ClearState(userID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	delete(s.states, userID)
}
