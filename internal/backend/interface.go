// Package backend assembles the domain store and the optional event
// publisher selected by configuration.
package backend

import (
	"context"

	"tracker/internal/ports"
	"tracker/internal/services"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult is what the server runs on. Publisher is nil when change
// events are disabled.
type BackendResult struct {
	Store     ports.Store
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string

	// Change events; disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
