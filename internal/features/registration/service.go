// service.go — машина состояний регистрации и хранилище сессий.
// Каждое входящее сообщение продвигает сессию на одно поле; по завершении
// накопленные поля одним вызовом уходят в справочник сотрудников.
package registration

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tabel-bot/internal/storage"
)

// sessionTTL — сколько живёт брошенная сессия регистрации.
const sessionTTL = 30 * time.Minute

// Форматы полей как в исходном боте: табельный номер — 3-6 цифр,
// телефон — +7 и десять цифр.
var (
	tabNumberRe = regexp.MustCompile(`^\d{3,6}$`)
	phoneRe     = regexp.MustCompile(`^\+7\d{10}$`)
)

// Store — нужная регистрации часть хранилища.
type Store interface {
	GetUser(ctx context.Context, userID int64) (*storage.User, error)
	UpsertUser(ctx context.Context, u *storage.User) error
}

// Reply — ответ машины состояний на одно входящее сообщение.
type Reply struct {
	Text string
	Done bool // регистрация завершена, сотрудник сохранён
}

// Service ведёт диалоги регистрации.
type Service struct {
	store Store

	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewService создаёт сервис регистрации.
func NewService(store Store) *Service {
	return &Service{
		store:    store,
		sessions: make(map[int64]*Session),
	}
}

// IsRegistered сообщает, есть ли сотрудник в справочнике.
func (s *Service) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

// InProgress сообщает, идёт ли у пользователя диалог регистрации.
func (s *Service) InProgress(userID int64) bool {
	return s.session(userID) != nil
}

// Begin открывает диалог и возвращает первый вопрос.
func (s *Service) Begin(userID int64) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[userID] = &Session{
		State:     StateAwaitingName,
		ExpiresAt: time.Now().Add(sessionTTL),
	}
	return Reply{Text: "Добро пожаловать!\nВведите ваше ФИО:"}
}

// Step обрабатывает одно сообщение в рамках диалога.
// Если сессии нет (истекла) — диалог начинается заново.
// Ошибка возвращается только при падении записи в базу; сессия при этом
// сохраняется, и повторная отправка того же сообщения повторяет попытку.
func (s *Service) Step(ctx context.Context, userID int64, text string) (Reply, error) {
	sess := s.session(userID)
	if sess == nil {
		return s.Begin(userID), nil
	}

	text = strings.TrimSpace(text)

	switch sess.State {
	case StateAwaitingName:
		if text == "" {
			return Reply{Text: "❗ ФИО не может быть пустым. Введите ваше ФИО:"}, nil
		}
		s.update(userID, func(sess *Session) {
			sess.FullName = text
			sess.State = StateAwaitingTab
		})
		return Reply{Text: "Теперь введите ваш табельный номер:"}, nil

	case StateAwaitingTab:
		if !tabNumberRe.MatchString(text) {
			return Reply{Text: "❗ Табельный номер — это 3-6 цифр. Попробуйте ещё раз:"}, nil
		}
		s.update(userID, func(sess *Session) {
			sess.TabNumber = text
			sess.State = StateAwaitingPhone
		})
		return Reply{Text: "Введите номер телефона (+7...):"}, nil

	case StateAwaitingPhone:
		if !phoneRe.MatchString(text) {
			return Reply{Text: "❗ Телефон в формате +7XXXXXXXXXX. Попробуйте ещё раз:"}, nil
		}
		user := &storage.User{
			UserID:    userID,
			FullName:  sess.FullName,
			TabNumber: sess.TabNumber,
			Phone:     text,
		}
		if err := s.store.UpsertUser(ctx, user); err != nil {
			// Сессию не стираем: диалог остаётся в том же состоянии
			// и повторный ввод телефона повторит запись.
			return Reply{}, fmt.Errorf("ошибка сохранения регистрации: %w", err)
		}
		s.Clear(userID)
		log.WithFields(log.Fields{
			"user_id":   userID,
			"full_name": sess.FullName,
		}).Info("Сотрудник зарегистрирован")
		return Reply{
			Text: "Регистрация завершена ✅\nТеперь выберите статус на сегодня:",
			Done: true,
		}, nil
	}

	// Неизвестное состояние — начинаем заново.
	return s.Begin(userID), nil
}

// Clear стирает сессию пользователя.
func (s *Service) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

func (s *Service) session(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	if time.Now().After(sess.ExpiresAt) {
		delete(s.sessions, userID)
		return nil
	}
	cp := *sess
	return &cp
}

func (s *Service) update(userID int64, fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return
	}
	fn(sess)
	sess.ExpiresAt = time.Now().Add(sessionTTL)
}
