package status

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabel-bot/internal/storage"
	"tabel-bot/internal/storage/memory"
)

func TestIsKnownLabel(t *testing.T) {
	for _, l := range Labels {
		assert.True(t, IsKnownLabel(l))
	}
	assert.False(t, IsKnownLabel("работаю"))
	assert.False(t, IsKnownLabel(""))
}

func TestSetTodayOverwrites(t *testing.T) {
	store := memory.New()
	svc := NewService(store, time.UTC)
	ctx := context.Background()

	require.NoError(t, store.UpsertUser(ctx, &storage.User{UserID: 1, FullName: "Иванов Иван"}))

	_, err := svc.SetToday(ctx, 1, LabelWork)
	require.NoError(t, err)
	_, err = svc.SetToday(ctx, 1, LabelSick)
	require.NoError(t, err)

	label, _, err := svc.TodayStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, LabelSick, label)

	history, err := svc.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1, "за день остаётся ровно одна запись")
}

func TestSetTodayUnregistered(t *testing.T) {
	svc := NewService(memory.New(), time.UTC)

	_, err := svc.SetToday(context.Background(), 404, LabelWork)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestSendReminders(t *testing.T) {
	store := memory.New()
	svc := NewService(store, time.UTC)
	ctx := context.Background()

	// Трое без статуса, один отметился.
	for id := int64(1); id <= 4; id++ {
		require.NoError(t, store.UpsertUser(ctx, &storage.User{UserID: id, FullName: "Сотрудник"}))
	}
	_, err := svc.SetToday(ctx, 4, LabelWork)
	require.NoError(t, err)

	var attempted []int64
	send := func(chatID int64, text string) error {
		attempted = append(attempted, chatID)
		if chatID == 2 {
			return errors.New("bot was blocked by the user")
		}
		return nil
	}

	sent, failed, err := svc.SendReminders(ctx, send)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, failed)
	assert.ElementsMatch(t, []int64{1, 2, 3}, attempted,
		"напоминание получают все не отметившиеся, отметившийся — нет")
}

func TestDailySummary(t *testing.T) {
	store := memory.New()
	svc := NewService(store, time.UTC)
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		require.NoError(t, store.UpsertUser(ctx, &storage.User{UserID: id, FullName: "Сотрудник"}))
	}
	_, err := svc.SetToday(ctx, 1, LabelWork)
	require.NoError(t, err)
	_, err = svc.SetToday(ctx, 2, LabelWork)
	require.NoError(t, err)

	stats, missing, err := svc.DailySummary(ctx, svc.Today())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{LabelWork: 2}, stats)
	require.Len(t, missing, 1)
	assert.Equal(t, int64(3), missing[0].UserID)
}
