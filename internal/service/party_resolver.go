package service

import (
	"fmt"

	"go-trading-post/internal/model"
	"go-trading-post/internal/repository"

	"gorm.io/gorm"
)

// PartyResolver maps a transaction type and a person name to the counterparty:
// purchases are made by hunters, sales by merchants.
type PartyResolver interface {
	Resolve(tx *gorm.DB, txType model.TransactionType, personName string) (model.PartyRef, error)
}

type partyResolver struct {
	repo repository.PartyRepository
}

func NewPartyResolver(repo repository.PartyRepository) PartyResolver {
	return &partyResolver{repo: repo}
}

func (r *partyResolver) Resolve(tx *gorm.DB, txType model.TransactionType, personName string) (model.PartyRef, error) {
	kind := txType.PartyKind()
	ref, err := r.repo.Lookup(tx, kind, personName)
	if isRecordNotFound(err) {
		return model.PartyRef{}, &NotFoundError{Kind: ErrPartyNotFound, Key: fmt.Sprintf("%s '%s'", kind, personName)}
	}
	return ref, err
}
