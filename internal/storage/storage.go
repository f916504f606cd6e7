// Package storage описывает контракт хранилища табель-бота: справочник
// сотрудников и журнал статусов. Конкретные реализации живут в подпакетах
// postgres, sqlite и memory; всё остальное приложение работает только
// через интерфейс Store, который явно передаётся в сервисы при сборке.
package storage

import (
	"context"
	"errors"
	"time"
)

// Ошибки хранилища и доступа. Хендлеры различают их через errors.Is
// и показывают пользователю понятный текст вместо стектрейса.
var (
	// ErrUserNotFound — операция требует зарегистрированного сотрудника,
	// а записи с таким user_id в базе нет. Сюда же попадает попытка
	// записать статус для незарегистрированного id.
	ErrUserNotFound = errors.New("сотрудник не зарегистрирован")
	// ErrPermissionDenied — операция доступна только администратору
	// или только создателю бота.
	ErrPermissionDenied = errors.New("недостаточно прав")
	// ErrProtectedUser — попытка удалить создателя или действующего
	// администратора.
	ErrProtectedUser = errors.New("нельзя удалить администратора")
)

// User — сотрудник в справочнике.
// User.UserID назначается Telegram, бот его не генерирует.
type User struct {
	UserID    int64     // Telegram user ID (уникальный ключ)
	FullName  string    // ФИО
	TabNumber string    // Табельный номер (может быть пустым)
	Phone     string    // Телефон (может быть пустым)
	IsAdmin   bool      // Флаг администратора
	CreatedAt time.Time // Когда сотрудник зарегистрировался
}

// StatusEntry — одна запись журнала статусов: не больше одной на
// пару (сотрудник, дата), повторная запись за тот же день перезаписывает метку.
type StatusEntry struct {
	UserID     int64
	Date       time.Time // Календарная дата (время обнулено)
	Label      string    // Текст статуса (кнопка или произвольный)
	RecordedAt time.Time // Когда запись сделана
}

// Store — контракт хранилища. Политики, единые для всех реализаций:
//
//   - UpsertUser: insert-ignore — при конфликте по user_id существующая
//     запись не трогается (первая регистрация выигрывает);
//   - GetUser/GetStatus: отсутствие записи — не ошибка, возвращается nil/"";
//   - SetStatus: ссылочная целостность обязательна — статус для
//     незарегистрированного id отклоняется с ErrUserNotFound;
//   - DeleteUser: каскадно удаляет статусы, идемпотентен;
//   - SetAdmin: для неизвестного id возвращает ErrUserNotFound.
type Store interface {
	UpsertUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, userID int64) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	SetAdmin(ctx context.Context, userID int64, isAdmin bool) error
	DeleteUser(ctx context.Context, userID int64) error

	SetStatus(ctx context.Context, userID int64, day time.Time, label string) error
	GetStatus(ctx context.Context, userID int64, day time.Time) (string, error)
	History(ctx context.Context, userID int64) ([]StatusEntry, error)
	StatsFor(ctx context.Context, day time.Time) (map[string]int, error)
	UsersMissingStatus(ctx context.Context, day time.Time) ([]*User, error)

	Close() error
}

// DateOnly обнуляет время, оставляя календарную дату в том же поясе.
// Журнал статусов ключуется именно такой датой.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
