// users.go — операции со справочником сотрудников (таблица users).
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tabel-bot/internal/storage"
)

// UpsertUser добавляет сотрудника. Политика конфликта — insert-ignore:
// если user_id уже есть, существующая запись не трогается.
func (s *Store) UpsertUser(ctx context.Context, u *storage.User) error {
	query := `
		INSERT INTO users (user_id, full_name, tab_number, phone, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query,
		u.UserID, u.FullName, u.TabNumber, u.Phone, u.IsAdmin,
	)
	if err != nil {
		return fmt.Errorf("ошибка регистрации сотрудника: %w", err)
	}
	return nil
}

// GetUser возвращает сотрудника по Telegram user ID.
// Отсутствие записи — не ошибка: возвращается (nil, nil).
func (s *Store) GetUser(ctx context.Context, userID int64) (*storage.User, error) {
	query := `
		SELECT user_id, full_name, tab_number, phone, is_admin, created_at
		FROM users
		WHERE user_id = $1
	`
	var u storage.User
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&u.UserID, &u.FullName, &u.TabNumber, &u.Phone, &u.IsAdmin, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения сотрудника (user_id=%d): %w", userID, err)
	}
	return &u, nil
}

// ListUsers возвращает всех сотрудников, отсортированных по ФИО —
// админские списки должны быть детерминированными.
func (s *Store) ListUsers(ctx context.Context) ([]*storage.User, error) {
	query := `
		SELECT user_id, full_name, tab_number, phone, is_admin, created_at
		FROM users
		ORDER BY full_name, user_id
	`
	return s.queryUsers(ctx, query)
}

// SetAdmin выставляет флаг администратора.
// Для неизвестного id возвращает storage.ErrUserNotFound.
func (s *Store) SetAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET is_admin = $2 WHERE user_id = $1`, userID, isAdmin)
	if err != nil {
		return fmt.Errorf("ошибка обновления флага админа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}

// DeleteUser удаляет сотрудника; статусы уходят каскадом (ON DELETE CASCADE).
// Удаление несуществующего id — не ошибка.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("ошибка удаления сотрудника: %w", err)
	}
	return nil
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*storage.User, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса сотрудников: %w", err)
	}
	defer rows.Close()

	var out []*storage.User
	for rows.Next() {
		var u storage.User
		if err := rows.Scan(
			&u.UserID, &u.FullName, &u.TabNumber, &u.Phone, &u.IsAdmin, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}

	return out, nil
}
