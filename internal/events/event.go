package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-trading-post/internal/model"
)

const (
	TypeStockUpdate = "stock_update"

	ActionTransactionCreated = "transaction_created"
	ActionTransactionUpdated = "transaction_updated"
	ActionTransactionDeleted = "transaction_deleted"
	ActionGoodCreated        = "good_created"
	ActionGoodUpdated        = "good_updated"
	ActionGoodDeleted        = "good_deleted"
)

// Event is the payload pushed to websocket clients and the event topic.
type Event struct {
	Type         string              `json:"type"`
	Action       string              `json:"action"`
	Transaction  *model.Transaction  `json:"transaction,omitempty"`
	Good         *model.Good         `json:"good,omitempty"`
	StockChanges []model.StockChange `json:"stock_changes,omitempty"`
	Actor        string              `json:"actor"`
	Message      string              `json:"message"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

// Key is used to partition the event: transaction id first, then good id.
func (e Event) Key() string {
	switch {
	case e.Transaction != nil:
		return e.Transaction.ID.String()
	case e.Good != nil:
		return e.Good.ID.String()
	default:
		return e.Action
	}
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Fanout delivers every event to each publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) error {
	var err error
	for _, p := range f {
		if p == nil {
			continue
		}
		err = errors.Join(err, p.Publish(ctx, event))
	}
	return err
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
