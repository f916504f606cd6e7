package memory

import (
	"testing"

	"tabel-bot/internal/storage"
	"tabel-bot/internal/storage/storagetest"
)

func TestMemoryStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return New()
	})
}
