package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/ports"
)

// TransactionInput is the writable part of a transaction.
type TransactionInput struct {
	Kind       core.Kind
	CategoryID *int64
	Amount     core.Money
	Date       core.Date
	Note       string
}

// TransactionRepository is what the transaction workflow reads and writes.
type TransactionRepository interface {
	ports.TransactionStore
	GetCategory(ctx context.Context, id int64) (core.Category, error)
}

// TransactionService orchestrates transaction writes across the store, the
// receipt store and the event publisher. Events and receipts are optional.
type TransactionService struct {
	store    TransactionRepository
	receipts ReceiptStore
	events   Publisher
	logger   *log.StructuredLogger
}

func NewTransactionService(store TransactionRepository, receipts ReceiptStore, events Publisher, logger *log.StructuredLogger) *TransactionService {
	return &TransactionService{
		store:    store,
		receipts: receipts,
		events:   events,
		logger:   logger,
	}
}

func (s *TransactionService) List(ctx context.Context, caller int64, q core.TransactionQuery) ([]core.Transaction, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return s.store.ListTransactions(ctx, caller, q)
}

func (s *TransactionService) Get(ctx context.Context, caller, id int64) (core.Transaction, error) {
	if err := requireCaller(caller); err != nil {
		return core.Transaction{}, err
	}
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	if err := canRead(caller, t.OwnerID); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (s *TransactionService) Create(ctx context.Context, caller int64, in TransactionInput) (core.Transaction, error) {
	if err := requireCaller(caller); err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{OwnerID: caller}
	if err := s.apply(ctx, &t, in); err != nil {
		return core.Transaction{}, err
	}
	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.logger.LogTransactionSaved(ctx, log.OpCreate, caller, created.ID, string(created.Kind), created.Amount.Cents, created.Date.String())
	s.publish(ctx, amqp.EventTransactionCreated, created)
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, caller, id int64, in TransactionInput) (core.Transaction, error) {
	if err := requireCaller(caller); err != nil {
		return core.Transaction{}, err
	}
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	if err := canWrite(caller, t.OwnerID); err != nil {
		return core.Transaction{}, err
	}
	if err := s.apply(ctx, &t, in); err != nil {
		return core.Transaction{}, err
	}
	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	s.logger.LogTransactionSaved(ctx, log.OpUpdate, caller, updated.ID, string(updated.Kind), updated.Amount.Cents, updated.Date.String())
	s.publish(ctx, amqp.EventTransactionUpdated, updated)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, caller, id int64) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if err := canWrite(caller, t.OwnerID); err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return notFound(err)
	}
	s.dropReceipt(ctx, t.Receipt)
	s.logger.LogTransactionDeleted(ctx, caller, id)
	s.publish(ctx, amqp.EventTransactionDeleted, t)
	return nil
}

// AttachReceipt stores the uploaded file and points the transaction at it,
// replacing any previous receipt.
func (s *TransactionService) AttachReceipt(ctx context.Context, caller, id int64, file io.Reader) (core.Transaction, error) {
	if err := requireCaller(caller); err != nil {
		return core.Transaction{}, err
	}
	if s.receipts == nil {
		return core.Transaction{}, errors.New("receipt storage is not configured")
	}
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	if err := canWrite(caller, t.OwnerID); err != nil {
		return core.Transaction{}, err
	}

	ref, err := s.receipts.Save(ctx, file)
	if err != nil {
		return core.Transaction{}, err
	}
	previous := t.Receipt
	t.Receipt = ref
	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		s.dropReceipt(ctx, ref)
		return core.Transaction{}, notFound(err)
	}
	s.dropReceipt(ctx, previous)
	s.publish(ctx, amqp.EventTransactionUpdated, updated)
	return updated, nil
}

// apply validates in against the caller's categories and copies it onto t.
func (s *TransactionService) apply(ctx context.Context, t *core.Transaction, in TransactionInput) error {
	t.Kind = in.Kind
	t.Amount = in.Amount
	t.Date = in.Date
	t.Note = strings.TrimSpace(in.Note)
	t.CategoryID = in.CategoryID
	if err := t.Validate(); err != nil {
		return err
	}
	if in.CategoryID == nil {
		return nil
	}
	c, err := s.store.GetCategory(ctx, *in.CategoryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return invalidPK(*in.CategoryID)
		}
		return fmt.Errorf("load category: %w", err)
	}
	if c.OwnerID != t.OwnerID {
		return invalidPK(*in.CategoryID)
	}
	return t.MatchCategory(&c)
}

// publish sends a change event. Failures are logged and never fail the write.
func (s *TransactionService) publish(ctx context.Context, typ amqp.EventType, t core.Transaction) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(typ, t.ID, t.OwnerID)); err != nil {
		s.logger.LogError(ctx, "Failed to publish transaction event", err, log.ComponentAMQP, log.OpPublish,
			log.NewFields().WithUser(t.OwnerID))
	}
}

func (s *TransactionService) dropReceipt(ctx context.Context, ref string) {
	if ref == "" || s.receipts == nil {
		return
	}
	if err := s.receipts.Delete(ctx, ref); err != nil {
		slog.WarnContext(ctx, "Failed to delete receipt", log.FieldReceipt, ref, log.FieldError, err)
	}
}
