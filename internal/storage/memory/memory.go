// Package memory — реализация storage.Store в памяти процесса.
// Данные живут до перезапуска; режим полезен для локальной отладки и тестов.
// Все операции защищены одним мьютексом — инвариант «одна запись на
// (сотрудник, дату)» держится на ключе карты.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tabel-bot/internal/storage"
)

const dateFormat = "2006-01-02"

type statusKey struct {
	userID int64
	date   string
}

// Store реализует storage.Store в памяти.
type Store struct {
	mu       sync.RWMutex
	users    map[int64]*storage.User
	statuses map[statusKey]*storage.StatusEntry
}

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		users:    make(map[int64]*storage.User),
		statuses: make(map[statusKey]*storage.StatusEntry),
	}
}

// Close — no-op, интерфейсная симметрия с SQL-бэкендами.
func (s *Store) Close() error { return nil }

// --- Сотрудники ---

// UpsertUser — insert-ignore: существующая запись не перезаписывается.
func (s *Store) UpsertUser(_ context.Context, u *storage.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.UserID]; ok {
		return nil
	}
	cp := *u
	// Время регистрации проставляет хранилище, как и SQL-бэкенды.
	cp.CreatedAt = time.Now().UTC()
	s.users[u.UserID] = &cp
	return nil
}

func (s *Store) GetUser(_ context.Context, userID int64) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *Store) ListUsers(_ context.Context) ([]*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedUsers(func(*storage.User) bool { return true }), nil
}

func (s *Store) SetAdmin(_ context.Context, userID int64, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.IsAdmin = isAdmin
	return nil
}

// DeleteUser удаляет сотрудника и каскадом все его статусы. Идемпотентен.
func (s *Store) DeleteUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, userID)
	for key := range s.statuses {
		if key.userID == userID {
			delete(s.statuses, key)
		}
	}
	return nil
}

// --- Статусы ---

func (s *Store) SetStatus(_ context.Context, userID int64, day time.Time, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return storage.ErrUserNotFound
	}
	date := storage.DateOnly(day)
	s.statuses[statusKey{userID, date.Format(dateFormat)}] = &storage.StatusEntry{
		UserID:     userID,
		Date:       date,
		Label:      label,
		RecordedAt: time.Now().UTC(),
	}
	return nil
}

func (s *Store) GetStatus(_ context.Context, userID int64, day time.Time) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.statuses[statusKey{userID, storage.DateOnly(day).Format(dateFormat)}]
	if !ok {
		return "", nil
	}
	return e.Label, nil
}

func (s *Store) History(_ context.Context, userID int64) ([]storage.StatusEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.StatusEntry
	for _, e := range s.statuses {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) StatsFor(_ context.Context, day time.Time) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	date := storage.DateOnly(day).Format(dateFormat)
	stats := make(map[string]int)
	for key, e := range s.statuses {
		if key.date == date {
			stats[e.Label]++
		}
	}
	return stats, nil
}

func (s *Store) UsersMissingStatus(_ context.Context, day time.Time) ([]*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	date := storage.DateOnly(day).Format(dateFormat)
	return s.sortedUsers(func(u *storage.User) bool {
		_, has := s.statuses[statusKey{u.UserID, date}]
		return !has
	}), nil
}

// sortedUsers возвращает копии подходящих сотрудников по ФИО.
// Вызывается под мьютексом.
func (s *Store) sortedUsers(keep func(*storage.User) bool) []*storage.User {
	var out []*storage.User
	for _, u := range s.users {
		if keep(u) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
