package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-trading-post/internal/events"
	"go-trading-post/internal/model"
	"go-trading-post/internal/repository"
	"go-trading-post/internal/service"
	"go-trading-post/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.events))
	for _, e := range r.events {
		actions = append(actions, e.Action)
	}
	return actions
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	db        *gorm.DB
	svc       service.TransactionService
	goods     repository.GoodRepository
	parties   repository.PartyRepository
	txs       repository.TransactionRepository
	published *recordingPublisher
	clock     *fakeClock
}

func newFixture(t *testing.T, opts ...service.TransactionOption) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	f := &fixture{
		db:        db,
		goods:     repository.NewGoodRepo(db),
		parties:   repository.NewPartyRepo(db),
		txs:       repository.NewTransactionRepo(db),
		published: &recordingPublisher{},
		clock:     &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	opts = append([]service.TransactionOption{service.WithClock(f.clock.Now)}, opts...)
	f.svc = service.NewTransactionService(db, f.goods, f.txs, service.NewPartyResolver(f.parties), f.published, zap.NewNop(), opts...)
	return f
}

func (f *fixture) seedGood(t *testing.T, name string, stock int, value int64) *model.Good {
	t.Helper()
	good := &model.Good{
		Name:     name,
		Category: model.CategoryWeapon,
		Material: "Steel",
		Value:    decimal.NewFromInt(value),
		Stock:    stock,
		Weight:   3,
	}
	require.NoError(t, f.goods.Create(good))
	return good
}

func (f *fixture) seedHunter(t *testing.T, name string) *model.Party {
	t.Helper()
	hunter := &model.Party{Kind: model.PartyHunter, Name: name, Race: "Elf", Location: "Silverwood"}
	require.NoError(t, f.parties.Create(hunter))
	return hunter
}

func (f *fixture) seedMerchant(t *testing.T, name string) *model.Party {
	t.Helper()
	merchant := &model.Party{Kind: model.PartyMerchant, Name: name, Specialty: "Herbalist", Location: "Market Row"}
	require.NoError(t, f.parties.Create(merchant))
	return merchant
}

func (f *fixture) stock(t *testing.T, name string) int {
	t.Helper()
	good, err := f.goods.FindByName(nil, name)
	require.NoError(t, err)
	return good.Stock
}

func (f *fixture) countTransactions(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Transaction{}).Count(&n).Error)
	return n
}

func purchase(person string, items ...service.ItemRequest) *service.TransactionRequest {
	return &service.TransactionRequest{Type: model.TxPurchase, PersonName: person, Items: items}
}

func sale(person string, items ...service.ItemRequest) *service.TransactionRequest {
	return &service.TransactionRequest{Type: model.TxSale, PersonName: person, Items: items}
}

func item(name string, quantity int) service.ItemRequest {
	return service.ItemRequest{GoodName: name, Quantity: quantity}
}

func requireDecimal(t *testing.T, expected int64, actual decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.NewFromInt(expected).Equal(actual), "expected %d, got %s", expected, actual)
}
