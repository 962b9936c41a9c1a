package memory

import (
	"testing"

	"tracker/internal/ports"
	"tracker/internal/storage/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.Store { return New() })
}
