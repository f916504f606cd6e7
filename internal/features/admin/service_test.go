package admin

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabel-bot/internal/storage"
	"tabel-bot/internal/storage/memory"
)

const creatorID int64 = 1

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, creatorID, time.UTC), store
}

func seedUser(t *testing.T, store *memory.Store, id int64, name string) {
	t.Helper()
	require.NoError(t, store.UpsertUser(context.Background(), &storage.User{
		UserID:    id,
		FullName:  name,
		TabNumber: fmt.Sprintf("%03d", id),
	}))
}

func TestIsAdmin(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	seedUser(t, store, 10, "Иванов Иван")
	seedUser(t, store, 11, "Петров Пётр")
	require.NoError(t, store.SetAdmin(ctx, 11, true))

	assert.True(t, svc.IsAdmin(ctx, creatorID), "создатель всегда админ")
	assert.True(t, svc.IsAdmin(ctx, 11))
	assert.False(t, svc.IsAdmin(ctx, 10))
	assert.False(t, svc.IsAdmin(ctx, 999), "незарегистрированный не админ")
}

func TestSetAdminCreatorOnly(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	seedUser(t, store, 10, "Иванов Иван")
	seedUser(t, store, 11, "Петров Пётр")
	require.NoError(t, store.SetAdmin(ctx, 11, true))

	// Обычный админ не может управлять правами.
	err := svc.SetAdmin(ctx, 11, 10, true)
	assert.ErrorIs(t, err, storage.ErrPermissionDenied)

	// Создатель может.
	require.NoError(t, svc.SetAdmin(ctx, creatorID, 10, true))
	u, err := store.GetUser(ctx, 10)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	// И снять тоже.
	require.NoError(t, svc.SetAdmin(ctx, creatorID, 10, false))
	u, err = store.GetUser(ctx, 10)
	require.NoError(t, err)
	assert.False(t, u.IsAdmin)
}

func TestSetAdminRefusesCreatorTarget(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	seedUser(t, store, creatorID, "Создатель")

	err := svc.SetAdmin(ctx, creatorID, creatorID, false)
	assert.Error(t, err)
}

func TestDeleteUserGuards(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	seedUser(t, store, creatorID, "Создатель")
	seedUser(t, store, 10, "Иванов Иван")
	seedUser(t, store, 11, "Петров Пётр")
	require.NoError(t, store.SetAdmin(ctx, 11, true))

	// Не-админ не может удалять.
	err := svc.DeleteUser(ctx, 10, 11)
	assert.ErrorIs(t, err, storage.ErrPermissionDenied)

	// Создателя удалить нельзя.
	err = svc.DeleteUser(ctx, 11, creatorID)
	assert.ErrorIs(t, err, storage.ErrProtectedUser)

	// Админа удалить нельзя.
	err = svc.DeleteUser(ctx, creatorID, 11)
	assert.ErrorIs(t, err, storage.ErrProtectedUser)

	// Обычного сотрудника — можно, вместе со статусами.
	day := time.Date(2024, time.February, 12, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetStatus(ctx, 10, day, "✅ Работаю"))
	require.NoError(t, svc.DeleteUser(ctx, 11, 10))

	u, err := store.GetUser(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, u)
	label, err := store.GetStatus(ctx, 10, day)
	require.NoError(t, err)
	assert.Empty(t, label)
}

func TestBroadcastTallies(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	seedUser(t, store, 10, "Иванов Иван")
	seedUser(t, store, 11, "Петров Пётр")
	seedUser(t, store, 12, "Сидоров Сидор")

	var attempted []int64
	send := func(chatID int64, text string) error {
		attempted = append(attempted, chatID)
		if chatID == 11 {
			return fmt.Errorf("blocked by user")
		}
		return nil
	}

	res, err := svc.Broadcast(ctx, creatorID, "Всем привет", send)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.Len(t, attempted, 3, "ошибка доставки не прерывает рассылку")
}

func TestBroadcastRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	seedUser(t, store, 10, "Иванов Иван")

	_, err := svc.Broadcast(ctx, 10, "текст", func(int64, string) error { return nil })
	assert.ErrorIs(t, err, storage.ErrPermissionDenied)
}

func TestMonthReport(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	seedUser(t, store, 10, "Иванов Иван")
	day := time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetStatus(ctx, 10, day, "🏠 Отпуск"))

	data, filename, err := svc.MonthReport(ctx, creatorID, 2024, time.February)
	require.NoError(t, err)
	assert.Equal(t, "tabel_2024_02.xlsx", filename)
	assert.NotEmpty(t, data)
}

func TestPanelStateLifecycle(t *testing.T) {
	svc, store := newService(t)
	seedUser(t, store, 10, "Иванов Иван")

	assert.Nil(t, svc.GetState(creatorID))

	svc.SetState(creatorID, StateBroadcastText, nil)
	state := svc.GetState(creatorID)
	require.NotNil(t, state)
	assert.Equal(t, StateBroadcastText, state.State)

	svc.ClearState(creatorID)
	assert.Nil(t, svc.GetState(creatorID))
}

func TestParseYearMonth(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		year    int
		month   time.Month
		wantErr bool
	}{
		{name: "текущий месяц через дефис", input: "-", year: 2024, month: time.March},
		{name: "явный год и месяц", input: "2023 12", year: 2023, month: time.December},
		{name: "лишние пробелы", input: "  2024   2 ", year: 2024, month: time.February},
		{name: "месяц вне диапазона", input: "2024 13", wantErr: true},
		{name: "не числа", input: "февраль 2024", wantErr: true},
		{name: "одно слово", input: "2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, month, err := parseYearMonth(tt.input, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.year, year)
			assert.Equal(t, tt.month, month)
		})
	}
}
