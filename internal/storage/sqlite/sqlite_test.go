package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tabel-bot/internal/storage"
	"tabel-bot/internal/storage/storagetest"
)

func TestSQLiteStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, err := New(context.Background(), filepath.Join(t.TempDir(), "tabel.db"))
		require.NoError(t, err)
		return s
	})
}
