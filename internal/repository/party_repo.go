package repository

import (
	"strings"

	"go-trading-post/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartyRepository interface {
	Create(party *model.Party) error
	FindAll(kind model.PartyKind, name string) ([]model.Party, error)
	FindByID(kind model.PartyKind, id uuid.UUID) (*model.Party, error)
	FindByName(kind model.PartyKind, name string) (*model.Party, error)
	Lookup(tx *gorm.DB, kind model.PartyKind, name string) (model.PartyRef, error)
	Update(party *model.Party) error
	Delete(kind model.PartyKind, id uuid.UUID) error
}

type partyRepo struct {
	db *gorm.DB
}

func NewPartyRepo(db *gorm.DB) PartyRepository {
	return &partyRepo{db}
}

func (r *partyRepo) Create(party *model.Party) error {
	return r.db.Create(party).Error
}

func (r *partyRepo) FindAll(kind model.PartyKind, name string) ([]model.Party, error) {
	var parties []model.Party
	q := r.db.Where("kind = ?", kind)
	if name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	err := q.Order("name ASC").Find(&parties).Error
	return parties, err
}

func (r *partyRepo) FindByID(kind model.PartyKind, id uuid.UUID) (*model.Party, error) {
	var party model.Party
	if err := r.db.First(&party, "kind = ? AND id = ?", kind, id).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *partyRepo) FindByName(kind model.PartyKind, name string) (*model.Party, error) {
	var party model.Party
	if err := r.db.First(&party, "kind = ? AND name = ?", kind, name).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

// Lookup resolves an exact, case-sensitive name. It is a plain read and takes
// no locks.
func (r *partyRepo) Lookup(tx *gorm.DB, kind model.PartyKind, name string) (model.PartyRef, error) {
	if tx == nil {
		tx = r.db
	}
	var party model.Party
	if err := tx.Select("id", "kind", "name").First(&party, "kind = ? AND name = ?", kind, name).Error; err != nil {
		return model.PartyRef{}, err
	}
	return party.Ref(), nil
}

func (r *partyRepo) Update(party *model.Party) error {
	return r.db.Save(party).Error
}

func (r *partyRepo) Delete(kind model.PartyKind, id uuid.UUID) error {
	res := r.db.Unscoped().Delete(&model.Party{}, "kind = ? AND id = ?", kind, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
