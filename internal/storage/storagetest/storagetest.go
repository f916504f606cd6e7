// Package storagetest — общий набор проверок контракта storage.Store.
// Каждый бэкенд (memory, sqlite, postgres) обязан проходить один и тот же
// набор: политики хранилища не должны расходиться между реализациями.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabel-bot/internal/storage"
)

// Factory создаёт чистое хранилище для одного подтеста.
type Factory func(t *testing.T) storage.Store

// Run прогоняет контрактный набор против фабрики хранилищ.
func Run(t *testing.T, newStore Factory) {
	t.Run("GetUserAbsent", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		u, err := s.GetUser(context.Background(), 404)
		require.NoError(t, err, "отсутствие записи — не ошибка")
		assert.Nil(t, u)
	})

	t.Run("UpsertInsertIgnore", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 1, FullName: "Иванов Иван", TabNumber: "100"}))
		// Повторная регистрация с другим ФИО не должна ничего поменять.
		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 1, FullName: "Петров Пётр", TabNumber: "200"}))

		u, err := s.GetUser(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "Иванов Иван", u.FullName)
		assert.Equal(t, "100", u.TabNumber)
	})

	t.Run("CreatedAtStampedByStore", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		// Время регистрации проставляет хранилище; значение от вызывающего
		// игнорируется, чтобы бэкенды не расходились.
		supplied := time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 1, FullName: "Иванов Иван", CreatedAt: supplied}))

		u, err := s.GetUser(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.False(t, u.CreatedAt.IsZero())
		assert.NotEqual(t, supplied, u.CreatedAt)
	})

	t.Run("ListUsersOrderedByName", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 2, FullName: "Сидоров Семён"}))
		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 1, FullName: "Антонов Антон"}))
		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 3, FullName: "Иванов Иван"}))

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 3)
		assert.Equal(t, "Антонов Антон", users[0].FullName)
		assert.Equal(t, "Иванов Иван", users[1].FullName)
		assert.Equal(t, "Сидоров Семён", users[2].FullName)
	})

	t.Run("SetAdmin", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 1, FullName: "Иванов Иван"}))

		require.NoError(t, s.SetAdmin(ctx, 1, true))
		u, err := s.GetUser(ctx, 1)
		require.NoError(t, err)
		assert.True(t, u.IsAdmin)

		require.NoError(t, s.SetAdmin(ctx, 1, false))
		u, err = s.GetUser(ctx, 1)
		require.NoError(t, err)
		assert.False(t, u.IsAdmin)

		// Для неизвестного id — явный сигнал, а не тихий no-op.
		err = s.SetAdmin(ctx, 404, true)
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})

	t.Run("StatusWriteThenRead", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()
		day := date(2024, 2, 14)

		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 1, FullName: "Иванов Иван"}))
		require.NoError(t, s.SetStatus(ctx, 1, day, "✅ Работаю"))

		label, err := s.GetStatus(ctx, 1, day)
		require.NoError(t, err)
		assert.Equal(t, "✅ Работаю", label)

		// За другую дату статуса нет.
		label, err = s.GetStatus(ctx, 1, date(2024, 2, 15))
		require.NoError(t, err)
		assert.Empty(t, label)
	})

	t.Run("StatusOverwriteSameDay", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()
		day := date(2024, 2, 14)

		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 1, FullName: "Иванов Иван"}))
		require.NoError(t, s.SetStatus(ctx, 1, day, "✅ Работаю"))
		require.NoError(t, s.SetStatus(ctx, 1, day, "🤒 Больничный"))

		label, err := s.GetStatus(ctx, 1, day)
		require.NoError(t, err)
		assert.Equal(t, "🤒 Больничный", label, "видна только вторая метка")

		history, err := s.History(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, history, 1, "перезапись, а не добавление строки")
	})

	t.Run("StatusRejectsUnknownUser", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		err := s.SetStatus(context.Background(), 404, date(2024, 2, 14), "✅ Работаю")
		assert.ErrorIs(t, err, storage.ErrUserNotFound, "осиротевшие статусы запрещены")
	})

	t.Run("HistoryOrderedByDate", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()

		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 1, FullName: "Иванов Иван"}))
		require.NoError(t, s.SetStatus(ctx, 1, date(2024, 2, 16), "🏠 Отпуск"))
		require.NoError(t, s.SetStatus(ctx, 1, date(2024, 2, 14), "✅ Работаю"))
		require.NoError(t, s.SetStatus(ctx, 1, date(2024, 2, 15), "🚗 Командировка"))

		history, err := s.History(ctx, 1)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "✅ Работаю", history[0].Label)
		assert.Equal(t, "🚗 Командировка", history[1].Label)
		assert.Equal(t, "🏠 Отпуск", history[2].Label)
	})

	t.Run("DeleteCascadesAndIdempotent", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()
		day := date(2024, 2, 14)

		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 1, FullName: "Иванов Иван"}))
		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 2, FullName: "Петров Пётр"}))
		require.NoError(t, s.SetStatus(ctx, 1, day, "✅ Работаю"))
		require.NoError(t, s.SetStatus(ctx, 2, day, "🏠 Отпуск"))

		require.NoError(t, s.DeleteUser(ctx, 1))

		u, err := s.GetUser(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, u)

		history, err := s.History(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, history, "статусы удалённого сотрудника уходят каскадом")

		// Чужие записи не задеты.
		label, err := s.GetStatus(ctx, 2, day)
		require.NoError(t, err)
		assert.Equal(t, "🏠 Отпуск", label)

		// Повторное удаление — не ошибка.
		require.NoError(t, s.DeleteUser(ctx, 1))
	})

	t.Run("StatsFor", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()
		day := date(2024, 2, 14)

		for i, label := range []string{"✅ Работаю", "✅ Работаю", "🤒 Больничный"} {
			id := int64(i + 1)
			require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: id, FullName: "Сотрудник"}))
			require.NoError(t, s.SetStatus(ctx, id, day, label))
		}
		// Запись за другую дату в сводку дня не попадает.
		require.NoError(t, s.SetStatus(ctx, 1, date(2024, 2, 15), "🏠 Отпуск"))

		stats, err := s.StatsFor(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"✅ Работаю": 2, "🤒 Больничный": 1}, stats)
	})

	t.Run("CloseReturnsNoError", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Close())
	})

	t.Run("UsersMissingStatus", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		ctx := context.Background()
		day := date(2024, 2, 14)

		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 1, FullName: "Антонов Антон"}))
		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 2, FullName: "Иванов Иван"}))
		require.NoError(t, s.UpsertUser(ctx, &storage.User{UserID: 3, FullName: "Петров Пётр"}))
		require.NoError(t, s.SetStatus(ctx, 2, day, "✅ Работаю"))

		missing, err := s.UsersMissingStatus(ctx, day)
		require.NoError(t, err)
		require.Len(t, missing, 2)
		assert.Equal(t, int64(1), missing[0].UserID)
		assert.Equal(t, int64(3), missing[1].UserID)
	})
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
