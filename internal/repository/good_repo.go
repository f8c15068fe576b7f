package repository

import (
	"errors"
	"strings"

	"go-trading-post/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNegativeStock is returned by AdjustStock when the delta would take stock below zero.
var ErrNegativeStock = errors.New("stock would become negative")

type GoodFilter struct {
	Name        string
	Category    model.Category
	Material    string
	Description string
}

type GoodRepository interface {
	Create(good *model.Good) error
	FindAll(filter GoodFilter) ([]model.Good, error)
	FindByID(tx *gorm.DB, id uuid.UUID) (*model.Good, error)
	FindByName(tx *gorm.DB, name string) (*model.Good, error)
	LockForUpdate(tx *gorm.DB, ids []uuid.UUID, names []string) ([]model.Good, error)
	CreateIfMissing(tx *gorm.DB, good *model.Good) (*model.Good, error)
	AdjustStock(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) (*model.Good, error)
	Save(tx *gorm.DB, good *model.Good) error
	Delete(id uuid.UUID) error
}

type goodRepo struct {
	db *gorm.DB
}

func NewGoodRepo(db *gorm.DB) GoodRepository {
	return &goodRepo{db}
}

// conn falls back to the repository handle when no transaction is given.
func (r *goodRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *goodRepo) Create(good *model.Good) error {
	return r.db.Create(good).Error
}

func (r *goodRepo) FindAll(filter GoodFilter) ([]model.Good, error) {
	var goods []model.Good
	q := r.db.Model(&model.Good{})
	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Material != "" {
		q = q.Where("LOWER(material) LIKE ?", "%"+strings.ToLower(filter.Material)+"%")
	}
	if filter.Description != "" {
		q = q.Where("LOWER(description) LIKE ?", "%"+strings.ToLower(filter.Description)+"%")
	}
	err := q.Order("name ASC").Find(&goods).Error
	return goods, err
}

func (r *goodRepo) FindByID(tx *gorm.DB, id uuid.UUID) (*model.Good, error) {
	var good model.Good
	if err := r.conn(tx).First(&good, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &good, nil
}

func (r *goodRepo) FindByName(tx *gorm.DB, name string) (*model.Good, error) {
	var good model.Good
	if err := r.conn(tx).First(&good, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &good, nil
}

// LockForUpdate row-locks every existing good matching ids or names. Rows are
// locked in ascending id order so that two multi-item transactions touching
// the same goods always acquire them in the same order.
func (r *goodRepo) LockForUpdate(tx *gorm.DB, ids []uuid.UUID, names []string) ([]model.Good, error) {
	var goods []model.Good
	if len(ids) == 0 && len(names) == 0 {
		return goods, nil
	}
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"})
	switch {
	case len(ids) > 0 && len(names) > 0:
		q = q.Where("id IN ? OR name IN ?", ids, names)
	case len(ids) > 0:
		q = q.Where("id IN ?", ids)
	default:
		q = q.Where("name IN ?", names)
	}
	err := q.Order("id ASC").Find(&goods).Error
	return goods, err
}

// CreateIfMissing inserts the good unless one with the same name exists, and
// returns whichever row owns the name afterwards.
func (r *goodRepo) CreateIfMissing(tx *gorm.DB, good *model.Good) (*model.Good, error) {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(good).Error
	if err != nil {
		return nil, err
	}
	var stored model.Good
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&stored, "name = ?", good.Name).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// AdjustStock applies delta with a guarded update, so concurrent writers can
// never push stock below zero even without row locks. Returns the good as it
// is after the update, or ErrNegativeStock along with the unchanged good.
func (r *goodRepo) AdjustStock(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) (*model.Good, error) {
	res := tx.Model(&model.Good{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", delta),
			"version":    gorm.Expr("version + 1"),
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	good, err := r.FindByID(tx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return good, ErrNegativeStock
	}
	return good, nil
}

func (r *goodRepo) Save(tx *gorm.DB, good *model.Good) error {
	return r.conn(tx).Save(good).Error
}

// Delete removes the row permanently so the name can be reused.
func (r *goodRepo) Delete(id uuid.UUID) error {
	res := r.db.Unscoped().Delete(&model.Good{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
