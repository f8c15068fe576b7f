package service

import (
	"strings"

	"go-trading-post/internal/model"

	"github.com/shopspring/decimal"
)

// ItemRequest is one line of a transaction request. The good attributes are
// only meaningful on sales, where an unknown good is created from them.
type ItemRequest struct {
	GoodName    string           `json:"good_name" validate:"required,max=255"`
	Quantity    int              `json:"quantity" validate:"required,gt=0"`
	Description *string          `json:"description,omitempty"`
	Category    *model.Category  `json:"category,omitempty" validate:"omitempty,oneof=Weapon Armor Potion Ingredient Tool Food Valuable Other"`
	Material    *string          `json:"material,omitempty" validate:"omitempty,max=100"`
	Value       *decimal.Decimal `json:"value,omitempty" validate:"omitempty,gte=0,money"`
	Weight      *float64         `json:"weight,omitempty" validate:"omitempty,gte=0"`
}

func (i ItemRequest) hasGoodAttributes() bool {
	return i.Description != nil || i.Category != nil || i.Material != nil || i.Value != nil || i.Weight != nil
}

type TransactionRequest struct {
	Type       model.TransactionType `json:"transaction_type" validate:"required,oneof=purchase sale"`
	PersonName string                `json:"person_name" validate:"required,max=255"`
	Items      []ItemRequest         `json:"items" validate:"required,min=1,dive"`
	Note       string                `json:"note"`

	// IdempotencyKey comes from the Idempotency-Key header, never from the body.
	IdempotencyKey string `json:"-"`
}

func (r *TransactionRequest) normalize() {
	r.PersonName = strings.TrimSpace(r.PersonName)
	normalizeItems(r.Items)
}

func (r *TransactionRequest) validate() error {
	if r == nil {
		return invalid("request body is required")
	}
	r.normalize()
	if err := validate(r); err != nil {
		return err
	}
	return validateItems(r.Type, r.Items)
}

// UpdateTransactionRequest amends an existing transaction. Type and
// counterparty cannot be changed; totals are always recomputed.
type UpdateTransactionRequest struct {
	Items []ItemRequest `json:"items" validate:"omitempty,min=1,dive"`
	Note  *string       `json:"note"`
}

// validate checks the request shape. Item rules that depend on the
// transaction type are checked once the transaction is loaded.
func (r *UpdateTransactionRequest) validate() error {
	if r == nil {
		return invalid("request body is required")
	}
	normalizeItems(r.Items)
	return validate(r)
}

func normalizeItems(items []ItemRequest) {
	for i := range items {
		items[i].GoodName = strings.TrimSpace(items[i].GoodName)
	}
}

func validateItems(txType model.TransactionType, items []ItemRequest) error {
	if txType != model.TxPurchase {
		return nil
	}
	for _, item := range items {
		if item.hasGoodAttributes() {
			return invalid("good attributes are only accepted on sale items (good '%s')", item.GoodName)
		}
	}
	return nil
}

func itemNames(items []ItemRequest) []string {
	seen := make(map[string]bool, len(items))
	names := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item.GoodName] {
			seen[item.GoodName] = true
			names = append(names, item.GoodName)
		}
	}
	return names
}
