// Package sqlite — реализация storage.Store поверх SQLite (modernc.org/sqlite,
// чистый Go, без cgo). Подходит для развёртываний без отдельного сервера БД.
// Контракт тот же, что у postgres: insert-ignore для сотрудников, upsert по
// (user_id, status_date) для статусов, каскадное удаление, отказ в статусе
// для незарегистрированного id.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"tabel-bot/internal/storage"
)

// dateFormat — формат календарной даты в колонке status_date.
const dateFormat = "2006-01-02"

// Store реализует storage.Store поверх database/sql.
type Store struct {
	db *sql.DB
}

// New открывает (или создаёт) файл базы и готовит схему.
// Для path ":memory:" создаётся чисто внутрипроцессная база — такой режим
// используют тесты и конфигурация STORAGE_DRIVER=memory не нужна, если
// хочется именно SQL-семантику без файла.
func New(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия SQLite: %w", err)
	}

	// База и так обслуживает одного писателя; одно соединение заодно
	// делает корректным режим ":memory:".
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("база данных недоступна: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания схемы: %w", err)
	}

	log.WithField("path", path).Info("SQLite открыт")
	return &Store{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER UNIQUE NOT NULL,
    full_name TEXT NOT NULL,
    tab_number TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    is_admin INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS statuses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    status_date TEXT NOT NULL,
    status TEXT NOT NULL,
    recorded_at TEXT NOT NULL,
    UNIQUE (user_id, status_date)
);
CREATE INDEX IF NOT EXISTS idx_statuses_date ON statuses(status_date);
`

// Close закрывает базу.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- Сотрудники ---

func (s *Store) UpsertUser(ctx context.Context, u *storage.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, full_name, tab_number, phone, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`, u.UserID, u.FullName, u.TabNumber, u.Phone, boolToInt(u.IsAdmin),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("ошибка регистрации сотрудника: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID int64) (*storage.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, full_name, tab_number, phone, is_admin, created_at
		FROM users
		WHERE user_id = ?
	`, userID)

	u, err := scanUser(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения сотрудника (user_id=%d): %w", userID, err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*storage.User, error) {
	return s.queryUsers(ctx, `
		SELECT user_id, full_name, tab_number, phone, is_admin, created_at
		FROM users
		ORDER BY full_name, user_id
	`)
}

func (s *Store) SetAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_admin = ? WHERE user_id = ?`, boolToInt(isAdmin), userID)
	if err != nil {
		return fmt.Errorf("ошибка обновления флага админа: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка обновления флага админа: %w", err)
	}
	if affected == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("ошибка удаления сотрудника: %w", err)
	}
	return nil
}

// --- Статусы ---

func (s *Store) SetStatus(ctx context.Context, userID int64, day time.Time, label string) error {
	// Ссылочную целостность проверяем явно: у SQLite коды ошибок внешнего
	// ключа неудобно разбирать, а писателей у базы один.
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE user_id = ?)`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("ошибка проверки сотрудника: %w", err)
	}
	if exists == 0 {
		return storage.ErrUserNotFound
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO statuses (user_id, status_date, status, recorded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, status_date) DO UPDATE
		SET status = excluded.status,
		    recorded_at = excluded.recorded_at
	`, userID, storage.DateOnly(day).Format(dateFormat), label,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("ошибка записи статуса: %w", err)
	}
	return nil
}

func (s *Store) GetStatus(ctx context.Context, userID int64, day time.Time) (string, error) {
	var label string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM statuses WHERE user_id = ? AND status_date = ?`,
		userID, storage.DateOnly(day).Format(dateFormat),
	).Scan(&label)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("ошибка чтения статуса: %w", err)
	}
	return label, nil
}

func (s *Store) History(ctx context.Context, userID int64) ([]storage.StatusEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, status_date, status, recorded_at
		FROM statuses
		WHERE user_id = ?
		ORDER BY status_date
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истории: %w", err)
	}
	defer rows.Close()

	var out []storage.StatusEntry
	for rows.Next() {
		var e storage.StatusEntry
		var date, recorded string
		if err := rows.Scan(&e.UserID, &date, &e.Label, &recorded); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		if e.Date, err = time.Parse(dateFormat, date); err != nil {
			return nil, fmt.Errorf("некорректная дата %q: %w", date, err)
		}
		if e.RecordedAt, err = time.Parse(time.RFC3339, recorded); err != nil {
			return nil, fmt.Errorf("некорректное время %q: %w", recorded, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

func (s *Store) StatsFor(ctx context.Context, day time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM statuses
		WHERE status_date = ?
		GROUP BY status
	`, storage.DateOnly(day).Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса статистики: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		stats[label] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return stats, nil
}

func (s *Store) UsersMissingStatus(ctx context.Context, day time.Time) ([]*storage.User, error) {
	return s.queryUsers(ctx, `
		SELECT u.user_id, u.full_name, u.tab_number, u.phone, u.is_admin, u.created_at
		FROM users u
		LEFT JOIN statuses s ON s.user_id = u.user_id AND s.status_date = ?
		WHERE s.id IS NULL
		ORDER BY u.full_name, u.user_id
	`, storage.DateOnly(day).Format(dateFormat))
}

// --- Вспомогательные ---

func (s *Store) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*storage.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса сотрудников: %w", err)
	}
	defer rows.Close()

	var out []*storage.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

func scanUser(scan func(...interface{}) error) (*storage.User, error) {
	var u storage.User
	var isAdmin int
	var created string
	if err := scan(&u.UserID, &u.FullName, &u.TabNumber, &u.Phone, &isAdmin, &created); err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin != 0
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, fmt.Errorf("некорректное время %q: %w", created, err)
	}
	u.CreatedAt = t
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
