package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-trading-post/internal/events"
	"go-trading-post/internal/metrics"
	"go-trading-post/internal/model"
	"go-trading-post/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

type TransactionService interface {
	CreateTransaction(ctx context.Context, req *TransactionRequest, actor string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, id uuid.UUID, req *UpdateTransactionRequest, actor string) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID, actor string) (*DeleteConfirmation, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	QueryTransactions(ctx context.Context, filter repository.TransactionFilter) ([]model.Transaction, error)
}

// DeleteConfirmation lists the stock restored by deleting a transaction.
type DeleteConfirmation struct {
	TransactionID uuid.UUID           `json:"transaction_id"`
	StockChanges  []model.StockChange `json:"stock_changes"`
	DeletedAt     time.Time           `json:"deleted_at"`
}

// GoodDefaults fill the attributes a sale leaves out when it introduces a new good.
type GoodDefaults struct {
	Category model.Category
	Material string
	Value    decimal.Decimal
	Weight   float64
}

func DefaultGoodDefaults() GoodDefaults {
	return GoodDefaults{
		Category: model.CategoryOther,
		Material: "Unknown",
		Value:    decimal.Zero,
		Weight:   1,
	}
}

type TransactionOption func(*transactionService)

// WithIdempotency enables Idempotency-Key handling on CreateTransaction.
func WithIdempotency(repo repository.IdempotencyRepository) TransactionOption {
	return func(s *transactionService) { s.idem = repo }
}

func WithGoodDefaults(d GoodDefaults) TransactionOption {
	return func(s *transactionService) { s.defaults = d }
}

// WithClock overrides the time source used to stamp new transactions.
func WithClock(now func() time.Time) TransactionOption {
	return func(s *transactionService) { s.now = now }
}

type transactionService struct {
	db        *gorm.DB
	goodRepo  repository.GoodRepository
	txRepo    repository.TransactionRepository
	parties   PartyResolver
	publisher events.Publisher
	logger    *zap.Logger
	tracer    trace.Tracer

	idem     repository.IdempotencyRepository
	defaults GoodDefaults
	now      func() time.Time
}

func NewTransactionService(
	db *gorm.DB,
	goodRepo repository.GoodRepository,
	txRepo repository.TransactionRepository,
	parties PartyResolver,
	publisher events.Publisher,
	logger *zap.Logger,
	opts ...TransactionOption,
) TransactionService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &transactionService{
		db:        db,
		goodRepo:  goodRepo,
		txRepo:    txRepo,
		parties:   parties,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer("go-trading-post/service"),
		defaults:  DefaultGoodDefaults(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *transactionService) CreateTransaction(ctx context.Context, req *TransactionRequest, actor string) (txn *model.Transaction, err error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "transaction.create")
	defer func() { s.finish(span, opCreate, started, err) }()

	if err = req.validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("transaction.type", string(req.Type)),
		attribute.String("transaction.person", req.PersonName),
		attribute.Int("transaction.items", len(req.Items)),
	)

	if key := req.IdempotencyKey; key != "" && s.idem != nil {
		if err = s.reserveKey(ctx, key); err != nil {
			return nil, err
		}
		defer func() { s.settleKey(key, txn, err) }()
	}

	var changes []model.StockChange
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		party, err := s.parties.Resolve(tx, req.Type, req.PersonName)
		if err != nil {
			return err
		}

		if _, err := s.goodRepo.LockForUpdate(tx, nil, itemNames(req.Items)); err != nil {
			return err
		}

		items, applied, err := s.applyItems(tx, req.Type, party, req.Items, actor)
		if err != nil {
			return err
		}

		created := &model.Transaction{
			Type:        req.Type,
			PersonID:    party.ID,
			PersonType:  party.Kind,
			PersonName:  party.Name,
			Items:       items,
			TotalAmount: model.SumItems(items),
			Date:        s.now().UTC(),
			Note:        req.Note,
		}
		created.CreatedBy = actor
		created.UpdatedBy = actor
		if err := s.txRepo.Create(tx, created); err != nil {
			return err
		}

		txn = created
		changes = applied
		return nil
	})
	if err != nil {
		txn = nil
		err = storageFailure("create transaction", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("transaction.id", txn.ID.String()))
	s.logger.Info("transaction created",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("type", string(txn.Type)),
		zap.String("person", txn.PersonName),
		zap.String("total", txn.TotalAmount.String()),
		zap.String("actor", actor),
	)
	s.committed(ctx, events.ActionTransactionCreated, txn, changes, actor,
		fmt.Sprintf("%s recorded a %s by %s (%s)", actor, txn.Type, txn.PersonName, describeItems(txn.Items)))

	return txn, nil
}

func (s *transactionService) UpdateTransaction(ctx context.Context, id uuid.UUID, req *UpdateTransactionRequest, actor string) (txn *model.Transaction, err error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "transaction.update", trace.WithAttributes(attribute.String("transaction.id", id.String())))
	defer func() { s.finish(span, opUpdate, started, err) }()

	if err = req.validate(); err != nil {
		return nil, err
	}

	var changes []model.StockChange
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.lockTransaction(tx, id)
		if err != nil {
			return err
		}

		if req.Items != nil {
			if err := validateItems(current.Type, req.Items); err != nil {
				return err
			}
			if _, err := s.goodRepo.LockForUpdate(tx, lineGoodIDs(current.Items), itemNames(req.Items)); err != nil {
				return err
			}

			reverted, err := s.revertItems(tx, current, actor)
			if err != nil {
				return err
			}

			// Type and counterparty always stay as first recorded.
			party := model.PartyRef{ID: current.PersonID, Kind: current.PersonType, Name: current.PersonName}
			items, applied, err := s.applyItems(tx, current.Type, party, req.Items, actor)
			if err != nil {
				return err
			}
			if err := s.txRepo.ReplaceItems(tx, current, items); err != nil {
				return err
			}
			current.TotalAmount = model.SumItems(items)
			changes = append(reverted, applied...)
		}

		if req.Note != nil {
			current.Note = *req.Note
		}
		current.UpdatedBy = actor
		if err := s.txRepo.Save(tx, current); err != nil {
			return err
		}

		txn = current
		return nil
	})
	if err != nil {
		txn = nil
		err = storageFailure("update transaction", err)
		return nil, err
	}

	s.logger.Info("transaction updated",
		zap.String("transaction_id", txn.ID.String()),
		zap.Int("stock_changes", len(changes)),
		zap.String("total", txn.TotalAmount.String()),
		zap.String("actor", actor),
	)
	s.committed(ctx, events.ActionTransactionUpdated, txn, changes, actor,
		fmt.Sprintf("%s amended %s %s (%s)", actor, txn.Type, txn.ID, describeItems(txn.Items)))

	return txn, nil
}

func (s *transactionService) DeleteTransaction(ctx context.Context, id uuid.UUID, actor string) (confirmation *DeleteConfirmation, err error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "transaction.delete", trace.WithAttributes(attribute.String("transaction.id", id.String())))
	defer func() { s.finish(span, opDelete, started, err) }()

	var deleted *model.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.lockTransaction(tx, id)
		if err != nil {
			return err
		}
		if _, err := s.goodRepo.LockForUpdate(tx, lineGoodIDs(current.Items), nil); err != nil {
			return err
		}

		reverted, err := s.revertItems(tx, current, actor)
		if err != nil {
			return err
		}

		deletedAt, err := s.txRepo.Delete(tx, current.ID, actor)
		if isRecordNotFound(err) {
			return &NotFoundError{Kind: ErrTransactionNotFound, Key: id.String()}
		}
		if err != nil {
			return err
		}

		deleted = current
		confirmation = &DeleteConfirmation{
			TransactionID: current.ID,
			StockChanges:  reverted,
			DeletedAt:     deletedAt,
		}
		return nil
	})
	if err != nil {
		confirmation = nil
		err = storageFailure("delete transaction", err)
		return nil, err
	}

	s.logger.Info("transaction deleted",
		zap.String("transaction_id", id.String()),
		zap.Int("stock_changes", len(confirmation.StockChanges)),
		zap.String("actor", actor),
	)
	s.committed(ctx, events.ActionTransactionDeleted, deleted, confirmation.StockChanges, actor,
		fmt.Sprintf("%s deleted %s %s", actor, deleted.Type, deleted.ID))

	return confirmation, nil
}

func (s *transactionService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	txn, err := s.txRepo.FindByID(s.db.WithContext(ctx), id)
	if isRecordNotFound(err) {
		return nil, &NotFoundError{Kind: ErrTransactionNotFound, Key: id.String()}
	}
	if err != nil {
		return nil, storageFailure("get transaction", err)
	}
	return txn, nil
}

func (s *transactionService) QueryTransactions(ctx context.Context, filter repository.TransactionFilter) ([]model.Transaction, error) {
	if strings.EqualFold(string(filter.Type), "all") {
		filter.Type = ""
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, invalid("unknown transaction type '%s'", filter.Type)
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return nil, invalid("end date is before start date")
	}

	transactions, err := s.txRepo.Query(filter)
	if err != nil {
		return nil, storageFailure("query transactions", err)
	}
	return transactions, nil
}

func (s *transactionService) lockTransaction(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	txn, err := s.txRepo.LockByID(tx, id)
	if isRecordNotFound(err) {
		return nil, &NotFoundError{Kind: ErrTransactionNotFound, Key: id.String()}
	}
	return txn, err
}

// applyItems moves stock for each item in input order and builds the line
// items. Any failure leaves the surrounding transaction to roll back.
func (s *transactionService) applyItems(tx *gorm.DB, txType model.TransactionType, party model.PartyRef, reqItems []ItemRequest, actor string) ([]model.LineItem, []model.StockChange, error) {
	items := make([]model.LineItem, 0, len(reqItems))
	changes := make([]model.StockChange, 0, len(reqItems))

	for _, item := range reqItems {
		good, err := s.goodRepo.FindByName(tx, item.GoodName)
		if isRecordNotFound(err) {
			if txType == model.TxPurchase {
				return nil, nil, &NotFoundError{Kind: ErrGoodNotFound, Key: item.GoodName}
			}
			good, err = s.goodRepo.CreateIfMissing(tx, s.newGood(item, party, actor))
		}
		if err != nil {
			return nil, nil, err
		}

		delta := txType.StockDelta(item.Quantity)
		if good.Stock+delta < 0 {
			return nil, nil, &InsufficientStockError{GoodName: good.Name, Available: good.Stock, Requested: item.Quantity}
		}

		updated, err := s.goodRepo.AdjustStock(tx, good.ID, delta, actor)
		if errors.Is(err, repository.ErrNegativeStock) {
			return nil, nil, &InsufficientStockError{GoodName: updated.Name, Available: updated.Stock, Requested: item.Quantity}
		}
		if err != nil {
			return nil, nil, err
		}

		items = append(items, model.LineItem{
			GoodID:    updated.ID,
			GoodName:  updated.Name,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice(txType, updated),
		})
		changes = append(changes, model.StockChange{
			GoodID:   updated.ID.String(),
			GoodName: updated.Name,
			Delta:    delta,
			Stock:    updated.Stock,
		})
	}

	return items, changes, nil
}

// revertItems applies the inverse of every line item of txn. Goods removed
// since the transaction was recorded have no stock left to correct.
func (s *transactionService) revertItems(tx *gorm.DB, txn *model.Transaction, actor string) ([]model.StockChange, error) {
	changes := make([]model.StockChange, 0, len(txn.Items))

	for _, item := range txn.Items {
		delta := -txn.Type.StockDelta(item.Quantity)
		updated, err := s.goodRepo.AdjustStock(tx, item.GoodID, delta, actor)
		switch {
		case errors.Is(err, repository.ErrNegativeStock):
			return nil, &InsufficientStockError{GoodName: updated.Name, Available: updated.Stock, Requested: item.Quantity}
		case isRecordNotFound(err):
			s.logger.Warn("good no longer exists, skipping stock reversal",
				zap.String("transaction_id", txn.ID.String()),
				zap.String("good", item.GoodName),
			)
			continue
		case err != nil:
			return nil, err
		}

		changes = append(changes, model.StockChange{
			GoodID:   updated.ID.String(),
			GoodName: updated.Name,
			Delta:    delta,
			Stock:    updated.Stock,
		})
	}

	return changes, nil
}

// unitPrice is the catalog value in both directions.
func unitPrice(_ model.TransactionType, good *model.Good) decimal.Decimal {
	return good.Value
}

func (s *transactionService) newGood(item ItemRequest, party model.PartyRef, actor string) *model.Good {
	good := &model.Good{
		Name:        item.GoodName,
		Description: fmt.Sprintf("Supplied by %s", party.Name),
		Category:    s.defaults.Category,
		Material:    s.defaults.Material,
		Value:       s.defaults.Value,
		Weight:      s.defaults.Weight,
	}
	if item.Description != nil {
		good.Description = *item.Description
	}
	if item.Category != nil {
		good.Category = *item.Category
	}
	if item.Material != nil {
		good.Material = *item.Material
	}
	if item.Value != nil {
		good.Value = *item.Value
	}
	if item.Weight != nil {
		good.Weight = *item.Weight
	}
	good.CreatedBy = actor
	good.UpdatedBy = actor
	return good
}

func (s *transactionService) reserveKey(ctx context.Context, key string) error {
	ok, err := s.idem.Reserve(ctx, key)
	if err != nil {
		return &StorageError{Op: "reserve idempotency key", Err: err}
	}
	if ok {
		return nil
	}
	existing, err := s.idem.Lookup(ctx, key)
	if err != nil {
		s.logger.Warn("idempotency lookup failed", zap.String("key", key), zap.Error(err))
	}
	return &DuplicateRequestError{Key: key, TransactionID: existing}
}

// settleKey binds the key to the created transaction, or frees it when the
// request failed so the caller can retry.
func (s *transactionService) settleKey(key string, txn *model.Transaction, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err != nil || txn == nil {
		if rerr := s.idem.Release(ctx, key); rerr != nil {
			s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(rerr))
		}
		return
	}
	if cerr := s.idem.Complete(ctx, key, txn.ID.String()); cerr != nil {
		s.logger.Warn("failed to complete idempotency key", zap.String("key", key), zap.Error(cerr))
	}
}

func (s *transactionService) committed(ctx context.Context, action string, txn *model.Transaction, changes []model.StockChange, actor, message string) {
	for _, change := range changes {
		metrics.ObserveStock(change.Delta)
	}
	event := events.Event{
		Type:         events.TypeStockUpdate,
		Action:       action,
		Transaction:  txn,
		StockChanges: changes,
		Actor:        actor,
		Message:      message,
		OccurredAt:   s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		metrics.PublishFailed()
		s.logger.Warn("failed to publish event", zap.String("action", action), zap.Error(err))
	}
}

func (s *transactionService) finish(span trace.Span, op string, started time.Time, err error) {
	code := ErrorCode(err)
	metrics.ObserveOperation(op, code, started)

	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case IsClientError(err) || IsNotFound(err):
		span.SetStatus(codes.Error, code)
		s.logger.Info("transaction rejected", zap.String("operation", op), zap.String("code", code), zap.Error(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		s.logger.Error("transaction failed", zap.String("operation", op), zap.Error(err))
	}
	span.End()
}

func lineGoodIDs(items []model.LineItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.GoodID)
	}
	return ids
}

func describeItems(items []model.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", item.Quantity, item.GoodName))
	}
	return strings.Join(parts, ", ")
}
