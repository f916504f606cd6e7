// statuses.go — журнал статусов (таблица statuses).
// Инвариант «не больше одной записи на (сотрудник, дату)» держится на
// уникальном ограничении (user_id, status_date): повторная запись за тот же
// день — это один upsert строки, никаких блокировок сверху не нужно.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tabel-bot/internal/storage"
)

// pgForeignKeyViolation — код ошибки PostgreSQL 23503 (foreign_key_violation).
const pgForeignKeyViolation = "23503"

// SetStatus записывает статус сотрудника на дату. Повторная запись за тот же
// день перезаписывает метку. Статус для незарегистрированного id отклоняется
// с storage.ErrUserNotFound — целостность держит внешний ключ, а не дисциплина
// вызывающих.
func (s *Store) SetStatus(ctx context.Context, userID int64, day time.Time, label string) error {
	query := `
		INSERT INTO statuses (user_id, status_date, status, recorded_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, status_date) DO UPDATE
		SET status = EXCLUDED.status,
		    recorded_at = NOW()
	`
	_, err := s.pool.Exec(ctx, query, userID, storage.DateOnly(day), label)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return storage.ErrUserNotFound
		}
		return fmt.Errorf("ошибка записи статуса: %w", err)
	}
	return nil
}

// GetStatus возвращает статус на дату или "" если не записан.
func (s *Store) GetStatus(ctx context.Context, userID int64, day time.Time) (string, error) {
	var label string
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM statuses WHERE user_id = $1 AND status_date = $2`,
		userID, storage.DateOnly(day),
	).Scan(&label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("ошибка чтения статуса: %w", err)
	}
	return label, nil
}

// History возвращает все статусы сотрудника по возрастанию даты.
func (s *Store) History(ctx context.Context, userID int64) ([]storage.StatusEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, status_date, status, recorded_at
		FROM statuses
		WHERE user_id = $1
		ORDER BY status_date
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истории: %w", err)
	}
	defer rows.Close()

	var out []storage.StatusEntry
	for rows.Next() {
		var e storage.StatusEntry
		if err := rows.Scan(&e.UserID, &e.Date, &e.Label, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// StatsFor считает, сколько сотрудников выбрали каждый статус за дату.
func (s *Store) StatsFor(ctx context.Context, day time.Time) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM statuses
		WHERE status_date = $1
		GROUP BY status
	`, storage.DateOnly(day))
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

// UsersMissingStatus возвращает сотрудников без статуса на дату
// (anti-join к журналу) — цели для ежедневного напоминания.
func (s *Store) UsersMissingStatus(ctx context.Context, day time.Time) ([]*storage.User, error) {
	query := `
		SELECT u.user_id, u.full_name, u.tab_number, u.phone, u.is_admin, u.created_at
		FROM users u
		LEFT JOIN statuses s ON s.user_id = u.user_id AND s.status_date = $1
		WHERE s.id IS NULL
		ORDER BY u.full_name, u.user_id
	`
	return s.queryUsers(ctx, query, storage.DateOnly(day))
}
