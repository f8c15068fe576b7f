package repository_test

import (
	"testing"
	"time"

	"go-trading-post/internal/model"
	"go-trading-post/internal/repository"
	"go-trading-post/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type ledger struct {
	db    *gorm.DB
	goods repository.GoodRepository
	txs   repository.TransactionRepository
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	db := testutil.NewDB(t)
	return &ledger{db: db, goods: repository.NewGoodRepo(db), txs: repository.NewTransactionRepo(db)}
}

// record stores a transaction as-is, without touching stock.
func (l *ledger) record(t *testing.T, txType model.TransactionType, person string, date time.Time, goods ...lineSpec) *model.Transaction {
	t.Helper()
	items := make([]model.LineItem, 0, len(goods))
	for _, g := range goods {
		items = append(items, model.LineItem{
			GoodID:    g.good.ID,
			GoodName:  g.good.Name,
			Quantity:  g.quantity,
			UnitPrice: g.good.Value,
		})
	}
	txn := &model.Transaction{
		Type:        txType,
		PersonID:    uuid.New(),
		PersonType:  txType.PartyKind(),
		PersonName:  person,
		Items:       items,
		TotalAmount: model.SumItems(items),
		Date:        date,
	}
	require.NoError(t, l.txs.Create(l.db, txn))
	return txn
}

type lineSpec struct {
	good     *model.Good
	quantity int
}

func line(good *model.Good, quantity int) lineSpec {
	return lineSpec{good: good, quantity: quantity}
}

func day(d int) time.Time {
	return time.Date(2025, 3, d, 10, 0, 0, 0, time.UTC)
}

func TestTransactionRepo_CreateAndFind(t *testing.T) {
	l := newLedger(t)
	sword := seedGood(t, l.goods, "Sword", model.CategoryWeapon, 10, 100)
	shield := seedGood(t, l.goods, "Shield", model.CategoryArmor, 10, 80)

	txn := l.record(t, model.TxPurchase, "Aria", day(1), line(shield, 1), line(sword, 2))

	found, err := l.txs.FindByID(nil, txn.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "Shield", found.Items[0].GoodName)
	assert.Equal(t, 0, found.Items[0].Position)
	assert.Equal(t, "Sword", found.Items[1].GoodName)
	assert.Equal(t, 1, found.Items[1].Position)
	assert.True(t, decimal.NewFromInt(280).Equal(found.TotalAmount))
}

func TestTransactionRepo_ReplaceItemsAndDelete(t *testing.T) {
	l := newLedger(t)
	sword := seedGood(t, l.goods, "Sword", model.CategoryWeapon, 10, 100)
	txn := l.record(t, model.TxPurchase, "Aria", day(1), line(sword, 2))

	err := l.db.Transaction(func(tx *gorm.DB) error {
		locked, err := l.txs.LockByID(tx, txn.ID)
		require.NoError(t, err)
		require.Len(t, locked.Items, 1)
		return l.txs.ReplaceItems(tx, locked, []model.LineItem{
			{GoodID: sword.ID, GoodName: "Sword", Quantity: 5, UnitPrice: sword.Value},
		})
	})
	require.NoError(t, err)

	found, err := l.txs.FindByID(nil, txn.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 5, found.Items[0].Quantity)

	deletedAt, err := l.txs.Delete(l.db, txn.ID, "clerk")
	require.NoError(t, err)
	assert.False(t, deletedAt.IsZero())

	_, err = l.txs.FindByID(nil, txn.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = l.txs.Delete(l.db, txn.ID, "clerk")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var deletedBy []string
	require.NoError(t, l.db.Unscoped().Model(&model.Transaction{}).Where("id = ?", txn.ID).Pluck("deleted_by", &deletedBy).Error)
	assert.Equal(t, []string{"clerk"}, deletedBy)
}

func TestTransactionRepo_QueryExcludesDeleted(t *testing.T) {
	l := newLedger(t)
	sword := seedGood(t, l.goods, "Sword", model.CategoryWeapon, 10, 100)
	kept := l.record(t, model.TxPurchase, "Aria", day(1), line(sword, 1))
	gone := l.record(t, model.TxPurchase, "Aria", day(2), line(sword, 1))
	_, err := l.txs.Delete(l.db, gone.ID, "clerk")
	require.NoError(t, err)

	results, err := l.txs.Query(repository.TransactionFilter{PersonName: "Aria"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, kept.ID, results[0].ID)
}

func TestTransactionRepo_QueryPersonIsExact(t *testing.T) {
	l := newLedger(t)
	sword := seedGood(t, l.goods, "Sword", model.CategoryWeapon, 10, 100)
	l.record(t, model.TxPurchase, "Aria", day(1), line(sword, 1))
	l.record(t, model.TxPurchase, "Ariadne", day(2), line(sword, 1))

	results, err := l.txs.Query(repository.TransactionFilter{PersonName: "Aria"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Aria", results[0].PersonName)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestTransactionRepo_FinancialSummary(t *testing.T) {
	l := newLedger(t)
	sword := seedGood(t, l.goods, "Sword", model.CategoryWeapon, 10, 100)
	herb := seedGood(t, l.goods, "Herb", model.CategoryIngredient, 10, 5)

	l.record(t, model.TxPurchase, "Aria", day(1), line(sword, 2))  // 200 in
	l.record(t, model.TxPurchase, "Bran", day(2), line(sword, 1))  // 100 in
	l.record(t, model.TxSale, "Borin", day(2), line(herb, 10))     // 50 out
	l.record(t, model.TxPurchase, "Aria", day(20), line(sword, 5)) // outside range
	gone := l.record(t, model.TxSale, "Borin", day(3), line(herb, 4))
	_, err := l.txs.Delete(l.db, gone.ID, "clerk")
	require.NoError(t, err)

	summary, err := l.txs.GetFinancialSummary(day(1), day(10))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300).Equal(summary.Income), summary.Income.String())
	assert.True(t, decimal.NewFromInt(50).Equal(summary.Expense), summary.Expense.String())
	assert.True(t, decimal.NewFromInt(250).Equal(summary.Net), summary.Net.String())
}

func TestTransactionRepo_TopGoods(t *testing.T) {
	l := newLedger(t)
	sword := seedGood(t, l.goods, "Sword", model.CategoryWeapon, 10, 100)
	shield := seedGood(t, l.goods, "Shield", model.CategoryArmor, 10, 80)
	herb := seedGood(t, l.goods, "Herb", model.CategoryIngredient, 10, 5)

	l.record(t, model.TxPurchase, "Aria", day(1), line(sword, 2), line(shield, 3))
	l.record(t, model.TxPurchase, "Bran", day(2), line(sword, 2))
	l.record(t, model.TxSale, "Borin", day(2), line(herb, 50))

	top, err := l.txs.GetTopGoods(5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Sword", top[0].GoodName)
	assert.Equal(t, sword.ID, top[0].GoodID)
	assert.Equal(t, 4, top[0].Quantity)
	assert.True(t, decimal.NewFromInt(400).Equal(top[0].Revenue), top[0].Revenue.String())
	assert.Equal(t, "Shield", top[1].GoodName)
	assert.Equal(t, 3, top[1].Quantity)

	limited, err := l.txs.GetTopGoods(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestTransactionRepo_DashboardStats(t *testing.T) {
	l := newLedger(t)
	seedGood(t, l.goods, "Sword", model.CategoryWeapon, 10, 100)
	seedGood(t, l.goods, "Shield", model.CategoryArmor, 2, 80)
	seedGood(t, l.goods, "Herb", model.CategoryIngredient, 0, 5)

	stats, err := l.txs.GetDashboardStats(5)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalGoods)
	assert.EqualValues(t, 2, stats.LowStockCount)
	assert.True(t, decimal.NewFromInt(1160).Equal(stats.TotalValuation), stats.TotalValuation.String())
}

func TestTransactionRepo_StockMovement(t *testing.T) {
	l := newLedger(t)
	sword := seedGood(t, l.goods, "Sword", model.CategoryWeapon, 10, 100)
	herb := seedGood(t, l.goods, "Herb", model.CategoryIngredient, 10, 5)

	l.record(t, model.TxPurchase, "Aria", day(1), line(sword, 2), line(herb, 1))
	l.record(t, model.TxSale, "Borin", day(1), line(herb, 7))
	l.record(t, model.TxSale, "Borin", day(3), line(herb, 4))

	movement, err := l.txs.GetStockMovement(day(1).Add(-time.Hour), day(5))
	require.NoError(t, err)
	require.Len(t, movement, 2)
	assert.Equal(t, "2025-03-01", movement[0].Date)
	assert.Equal(t, 7, movement[0].Inbound)
	assert.Equal(t, 3, movement[0].Outbound)
	assert.Equal(t, "2025-03-03", movement[1].Date)
	assert.Equal(t, 4, movement[1].Inbound)
	assert.Equal(t, 0, movement[1].Outbound)
}
