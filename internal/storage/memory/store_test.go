package memory

import (
	"testing"

	"github.com/hongminglow/debt-ledger/internal/storage"
	"github.com/hongminglow/debt-ledger/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return New()
	})
}
