package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-trading-post/internal/events"
	"go-trading-post/internal/model"
	"go-trading-post/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GoodRequest creates or replaces a good's catalog entry. Updates must carry
// the version the caller read; stock is an absolute value and would otherwise
// overwrite transactions committed in between.
type GoodRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Category    model.Category  `json:"category" validate:"omitempty,oneof=Weapon Armor Potion Ingredient Tool Food Valuable Other"`
	Material    string          `json:"material" validate:"max=100"`
	Value       decimal.Decimal `json:"value" validate:"gte=0,money"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Weight      float64         `json:"weight" validate:"gte=0"`
	Version     *int            `json:"version,omitempty" validate:"omitempty,gte=0"`
}

type InventoryService interface {
	CreateGood(ctx context.Context, req *GoodRequest, actor string) (*model.Good, error)
	UpdateGood(ctx context.Context, id uuid.UUID, req *GoodRequest, actor string) (*model.Good, error)
	DeleteGood(ctx context.Context, id uuid.UUID, actor string) error
	GetGoods(ctx context.Context, filter repository.GoodFilter) ([]model.Good, error)
	GetGood(ctx context.Context, id uuid.UUID) (*model.Good, error)
	GetGoodByName(ctx context.Context, name string) (*model.Good, error)
}

type inventoryService struct {
	goodRepo  repository.GoodRepository
	db        *gorm.DB
	publisher events.Publisher
	logger    *zap.Logger
}

func NewInventoryService(goodRepo repository.GoodRepository, db *gorm.DB, publisher events.Publisher, logger *zap.Logger) InventoryService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inventoryService{
		goodRepo:  goodRepo,
		db:        db,
		publisher: publisher,
		logger:    logger,
	}
}

func (r *GoodRequest) validate() error {
	if r == nil {
		return invalid("request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	return validate(r)
}

func (s *inventoryService) CreateGood(ctx context.Context, req *GoodRequest, actor string) (*model.Good, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	existing, err := s.goodRepo.FindByName(s.db.WithContext(ctx), req.Name)
	if err != nil && !isRecordNotFound(err) {
		return nil, storageFailure("create good", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: '%s'", ErrGoodExists, req.Name)
	}

	good := &model.Good{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Material:    req.Material,
		Value:       req.Value,
		Stock:       req.Stock,
		Weight:      req.Weight,
	}
	if good.Category == "" {
		good.Category = model.CategoryOther
	}
	good.CreatedBy = actor
	good.UpdatedBy = actor

	if err := s.goodRepo.Create(good); err != nil {
		return nil, storageFailure("create good", err)
	}

	s.logger.Info("good created", zap.String("good_id", good.ID.String()), zap.String("name", good.Name), zap.String("actor", actor))
	s.broadcast(ctx, events.ActionGoodCreated, good, nil, actor, fmt.Sprintf("%s created good '%s'", actor, good.Name))
	return good, nil
}

func (s *inventoryService) UpdateGood(ctx context.Context, id uuid.UUID, req *GoodRequest, actor string) (*model.Good, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.Version == nil {
		return nil, &ValidationError{Field: "version", Tag: "required", Message: "version is required to update a good"}
	}

	var updated *model.Good
	var oldStock int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.goodRepo.LockForUpdate(tx, []uuid.UUID{id}, nil)
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return &NotFoundError{Kind: ErrGoodNotFound, Key: id.String()}
		}
		existing := locked[0]
		if existing.Version != *req.Version {
			return fmt.Errorf("%w: '%s' is at version %d, request read version %d", ErrStaleGood, existing.Name, existing.Version, *req.Version)
		}

		if req.Name != existing.Name {
			clash, err := s.goodRepo.FindByName(tx, req.Name)
			if err != nil && !isRecordNotFound(err) {
				return err
			}
			if clash != nil {
				return fmt.Errorf("%w: '%s'", ErrGoodExists, req.Name)
			}
		}

		oldStock = existing.Stock
		existing.Name = req.Name
		existing.Description = req.Description
		if req.Category != "" {
			existing.Category = req.Category
		}
		existing.Material = req.Material
		existing.Value = req.Value
		existing.Stock = req.Stock
		existing.Weight = req.Weight
		existing.Version++
		existing.UpdatedBy = actor

		if err := s.goodRepo.Save(tx, &existing); err != nil {
			return err
		}
		updated = &existing
		return nil
	})
	if err != nil {
		return nil, storageFailure("update good", err)
	}

	var changes []model.StockChange
	if delta := updated.Stock - oldStock; delta != 0 {
		changes = append(changes, model.StockChange{GoodID: updated.ID.String(), GoodName: updated.Name, Delta: delta, Stock: updated.Stock})
	}
	s.logger.Info("good updated", zap.String("good_id", updated.ID.String()), zap.Int("old_stock", oldStock), zap.Int("new_stock", updated.Stock), zap.String("actor", actor))
	s.broadcast(ctx, events.ActionGoodUpdated, updated, changes, actor, fmt.Sprintf("%s updated good '%s'", actor, updated.Name))
	return updated, nil
}

// DeleteGood removes a good from the catalog. Line items keep their snapshot
// of the name; reversing them later skips the missing good.
func (s *inventoryService) DeleteGood(ctx context.Context, id uuid.UUID, actor string) error {
	good, err := s.GetGood(ctx, id)
	if err != nil {
		return err
	}
	if err := s.goodRepo.Delete(id); err != nil {
		if isRecordNotFound(err) {
			return &NotFoundError{Kind: ErrGoodNotFound, Key: id.String()}
		}
		return storageFailure("delete good", err)
	}

	s.logger.Info("good deleted", zap.String("good_id", id.String()), zap.String("name", good.Name), zap.String("actor", actor))
	s.broadcast(ctx, events.ActionGoodDeleted, good, nil, actor, fmt.Sprintf("%s deleted good '%s'", actor, good.Name))
	return nil
}

func (s *inventoryService) GetGoods(ctx context.Context, filter repository.GoodFilter) ([]model.Good, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, invalid("unknown category '%s'", filter.Category)
	}
	goods, err := s.goodRepo.FindAll(filter)
	if err != nil {
		return nil, storageFailure("list goods", err)
	}
	return goods, nil
}

func (s *inventoryService) GetGood(ctx context.Context, id uuid.UUID) (*model.Good, error) {
	good, err := s.goodRepo.FindByID(s.db.WithContext(ctx), id)
	if isRecordNotFound(err) {
		return nil, &NotFoundError{Kind: ErrGoodNotFound, Key: id.String()}
	}
	if err != nil {
		return nil, storageFailure("get good", err)
	}
	return good, nil
}

func (s *inventoryService) GetGoodByName(ctx context.Context, name string) (*model.Good, error) {
	good, err := s.goodRepo.FindByName(s.db.WithContext(ctx), name)
	if isRecordNotFound(err) {
		return nil, &NotFoundError{Kind: ErrGoodNotFound, Key: name}
	}
	if err != nil {
		return nil, storageFailure("get good", err)
	}
	return good, nil
}

func (s *inventoryService) broadcast(ctx context.Context, action string, good *model.Good, changes []model.StockChange, actor, message string) {
	event := events.Event{
		Type:         events.TypeStockUpdate,
		Action:       action,
		Good:         good,
		StockChanges: changes,
		Actor:        actor,
		Message:      message,
		OccurredAt:   time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("action", action), zap.Error(err))
	}
}
