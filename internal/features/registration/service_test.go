package registration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabel-bot/internal/storage"
	"tabel-bot/internal/storage/memory"
)

// flakyStore прокидывает вызовы в память, но умеет ронять запись регистрации.
type flakyStore struct {
	*memory.Store
	failUpserts int
}

func (f *flakyStore) UpsertUser(ctx context.Context, u *storage.User) error {
	if f.failUpserts > 0 {
		f.failUpserts--
		return errors.New("база недоступна")
	}
	return f.Store.UpsertUser(ctx, u)
}

func TestRegistrationHappyPath(t *testing.T) {
	store := memory.New()
	svc := NewService(store)
	ctx := context.Background()

	reply := svc.Begin(10)
	assert.Contains(t, reply.Text, "ФИО")
	assert.True(t, svc.InProgress(10))

	reply, err := svc.Step(ctx, 10, "Иванов Иван Петрович")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "табельный")

	reply, err = svc.Step(ctx, 10, "12345")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "телефона")

	reply, err = svc.Step(ctx, 10, "+79991234567")
	require.NoError(t, err)
	assert.True(t, reply.Done)
	assert.False(t, svc.InProgress(10), "сессия стирается после записи")

	u, err := store.GetUser(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Иванов Иван Петрович", u.FullName)
	assert.Equal(t, "12345", u.TabNumber)
	assert.Equal(t, "+79991234567", u.Phone)
	assert.False(t, u.IsAdmin)
}

func TestRegistrationFieldValidation(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()
	svc.Begin(10)

	// Пустое ФИО не двигает диалог.
	reply, err := svc.Step(ctx, 10, "   ")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "ФИО")

	_, err = svc.Step(ctx, 10, "Иванов Иван")
	require.NoError(t, err)

	// Табельный номер — только 3-6 цифр.
	for _, bad := range []string{"12", "1234567", "12a45", "табель"} {
		reply, err = svc.Step(ctx, 10, bad)
		require.NoError(t, err)
		assert.Contains(t, reply.Text, "3-6 цифр", "ввод %q должен быть отклонён", bad)
	}

	_, err = svc.Step(ctx, 10, "12345")
	require.NoError(t, err)

	// Телефон строго +7XXXXXXXXXX.
	for _, bad := range []string{"89991234567", "+7999123", "+7999123456789"} {
		reply, err = svc.Step(ctx, 10, bad)
		require.NoError(t, err)
		assert.Contains(t, reply.Text, "+7", "ввод %q должен быть отклонён", bad)
	}
}

func TestRegistrationRetryAfterStorageFailure(t *testing.T) {
	store := &flakyStore{Store: memory.New(), failUpserts: 1}
	svc := NewService(store)
	ctx := context.Background()

	svc.Begin(10)
	_, err := svc.Step(ctx, 10, "Иванов Иван")
	require.NoError(t, err)
	_, err = svc.Step(ctx, 10, "12345")
	require.NoError(t, err)

	// Первая попытка записи падает — сессия должна пережить ошибку.
	_, err = svc.Step(ctx, 10, "+79991234567")
	require.Error(t, err)
	assert.True(t, svc.InProgress(10), "сессия не стирается при ошибке записи")

	// Повторный ввод того же телефона завершает регистрацию.
	reply, err := svc.Step(ctx, 10, "+79991234567")
	require.NoError(t, err)
	assert.True(t, reply.Done)

	u, err := store.GetUser(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Иванов Иван", u.FullName)
}

func TestRegistrationExpiredSessionRestarts(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()

	// Без Begin первый Step сам открывает диалог.
	reply, err := svc.Step(ctx, 10, "/start")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "ФИО")
}
