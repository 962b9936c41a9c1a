// Package worker applies transaction change events to the spreadsheet
// mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/sheets"
)

// Source is the read side of the store the worker needs.
type Source interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, ownerID int64, q core.TransactionQuery) ([]core.Transaction, error)
	GetUser(ctx context.Context, id int64) (core.User, error)
	ListUsers(ctx context.Context) ([]core.User, error)
}

type SyncWorker struct {
	store  Source
	mirror sheets.Mirror
}

func NewSyncWorker(store Source, mirror sheets.Mirror) *SyncWorker {
	return &SyncWorker{store: store, mirror: mirror}
}

// HandleEvent is an amqp.EventHandler. Returning an error requeues the
// message.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		log.FieldComponent, log.ComponentWorker,
		log.FieldEventType, ev.Type,
		log.FieldTransactionID, ev.TransactionID)

	switch ev.Type {
	case amqp.EventTransactionCreated, amqp.EventTransactionUpdated:
		return w.syncTransaction(ctx, ev.TransactionID)
	case amqp.EventTransactionDeleted:
		if err := w.mirror.Remove(ctx, ev.TransactionID); err != nil {
			return fmt.Errorf("remove transaction %d from mirror: %w", ev.TransactionID, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported event type %q", ev.Type)
	}
}

// syncTransaction writes the current state of the transaction. A
// transaction deleted since the event was published is removed instead.
func (w *SyncWorker) syncTransaction(ctx context.Context, id int64) error {
	t, err := w.store.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction no longer exists, removing from mirror",
			log.FieldComponent, log.ComponentWorker,
			log.FieldTransactionID, id)
		return w.mirror.Remove(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", id, err)
	}

	owner, err := w.ownerName(ctx, t.OwnerID)
	if err != nil {
		return err
	}
	if err := w.mirror.Upsert(ctx, sheets.RowFromTransaction(t, owner)); err != nil {
		return fmt.Errorf("upsert transaction %d into mirror: %w", id, err)
	}
	return nil
}

func (w *SyncWorker) ownerName(ctx context.Context, id int64) (string, error) {
	u, err := w.store.GetUser(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get owner %d: %w", id, err)
	}
	return u.Username, nil
}

// StartupSync writes every stored transaction to the mirror. It recovers
// from events lost while the worker was down. Failures are counted and
// logged; only a failure to enumerate users is returned.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	users, err := w.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users for startup sync: %w", err)
	}

	synced, failed := 0, 0
	for _, u := range users {
		txs, err := w.store.ListTransactions(ctx, u.ID, core.TransactionQuery{})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to list transactions for startup sync",
				log.FieldComponent, log.ComponentWorker,
				log.FieldUserID, u.ID,
				log.FieldError, err)
			failed++
			continue
		}
		for _, t := range txs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.mirror.Upsert(ctx, sheets.RowFromTransaction(t, u.Username)); err != nil {
				slog.ErrorContext(ctx, "Failed to sync transaction during startup",
					log.FieldComponent, log.ComponentWorker,
					log.FieldTransactionID, t.ID,
					log.FieldError, err)
				failed++
				continue
			}
			synced++
		}
	}

	slog.InfoContext(ctx, "Startup sync completed",
		log.FieldComponent, log.ComponentWorker,
		"users", len(users),
		"synced", synced,
		"errors", failed)
	return nil
}
