package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tracker/internal/amqp"
	"tracker/internal/core"
)

// Publisher receives transaction change events. Implementations must be
// safe for concurrent use.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// ReceiptStore persists receipt attachments and hands back an opaque
// reference.
type ReceiptStore interface {
	Save(ctx context.Context, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

var errNotFound = fmt.Errorf("%w: Not found.", core.ErrNotFound)

// requireCaller rejects requests without an authenticated user before any
// store access happens.
func requireCaller(caller int64) error {
	if caller <= 0 {
		return fmt.Errorf("%w: Authentication credentials were not provided.", core.ErrUnauthorized)
	}
	return nil
}

// canRead hides records of other users behind NotFound.
func canRead(caller, owner int64) error {
	if caller != owner {
		return errNotFound
	}
	return nil
}

// canWrite rejects mutation of records owned by another user.
func canWrite(caller, owner int64) error {
	if caller != owner {
		return fmt.Errorf("%w: You do not have permission to perform this action.", core.ErrForbidden)
	}
	return nil
}

// notFound normalises a store miss to the client-facing message and passes
// every other error through.
func notFound(err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return errNotFound
	}
	return err
}

func invalidPK(id int64) error {
	return fmt.Errorf("%w: Invalid pk \"%d\" - object does not exist.", core.ErrValidation, id)
}
