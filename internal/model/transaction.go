package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	// TxPurchase: a hunter buys from the post, stock goes down.
	TxPurchase TransactionType = "purchase"
	// TxSale: a merchant sells to the post, stock goes up.
	TxSale TransactionType = "sale"
)

func (t TransactionType) Valid() bool {
	return t == TxPurchase || t == TxSale
}

// PartyKind returns the counterparty kind the transaction type requires.
func (t TransactionType) PartyKind() PartyKind {
	if t == TxPurchase {
		return PartyHunter
	}
	return PartyMerchant
}

// StockDelta is the signed stock change of moving quantity units in this direction.
func (t TransactionType) StockDelta(quantity int) int {
	if t == TxPurchase {
		return -quantity
	}
	return quantity
}

type Transaction struct {
	BaseModel
	Type        TransactionType `gorm:"type:varchar(10);not null;index" json:"transaction_type"`
	PersonID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"person_id"`
	PersonType  PartyKind       `gorm:"type:varchar(10);not null" json:"person_type"`
	PersonName  string          `gorm:"type:varchar(255);not null;index" json:"person_name"`
	Items       []LineItem      `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Note        string          `gorm:"type:text" json:"note"`
}

// LineItem is one good moved by a transaction. GoodID is a weak reference: the
// good may be removed later, GoodName keeps the snapshot.
type LineItem struct {
	ID            uint            `gorm:"primaryKey" json:"-"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Position      int             `gorm:"not null" json:"-"`
	GoodID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"good_id"`
	GoodName      string          `gorm:"type:varchar(255);not null" json:"good_name"`
	Quantity      int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
}

func (LineItem) TableName() string {
	return "transaction_items"
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SumItems is the total amount of a list of line items.
func SumItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
