package repository

import (
	"time"

	"go-trading-post/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionFilter narrows QueryTransactions. Zero values mean "any"; the date
// range is inclusive on both ends.
type TransactionFilter struct {
	PersonName string
	Start      *time.Time
	End        *time.Time
	Type       model.TransactionType
}

type TransactionRepository interface {
	Create(tx *gorm.DB, txn *model.Transaction) error
	FindByID(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error)
	ReplaceItems(tx *gorm.DB, txn *model.Transaction, items []model.LineItem) error
	Save(tx *gorm.DB, txn *model.Transaction) error
	Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) (time.Time, error)
	Query(filter TransactionFilter) ([]model.Transaction, error)

	GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(lowStockThreshold int) (*DashboardStats, error)
	GetFinancialSummary(startDate, endDate time.Time) (*FinancialSummary, error)
	GetTopGoods(limit int) ([]TopGood, error)
}

// StockMovementData for chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// DashboardStats for overview stats
type DashboardStats struct {
	TotalGoods     int64           `json:"total_goods"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}

type FinancialSummary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

type TopGood struct {
	GoodID   uuid.UUID       `json:"good_id"`
	GoodName string          `json:"good_name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create stores the transaction and its items. Items are written explicitly
// so their order and foreign key do not depend on association saving.
func (r *transactionRepo) Create(tx *gorm.DB, txn *model.Transaction) error {
	items := txn.Items
	if err := tx.Omit(clause.Associations).Create(txn).Error; err != nil {
		return err
	}
	if err := r.insertItems(tx, txn.ID, items); err != nil {
		return err
	}
	txn.Items = items
	return nil
}

func (r *transactionRepo) insertItems(tx *gorm.DB, txID uuid.UUID, items []model.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].TransactionID = txID
		items[i].Position = i
	}
	return tx.Create(&items).Error
}

func (r *transactionRepo) FindByID(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	if tx == nil {
		tx = r.db
	}
	var txn model.Transaction
	if err := tx.Preload("Items", orderedItems).First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// LockByID loads the transaction with a row lock so that concurrent updates or
// deletes of the same record run one after the other.
func (r *transactionRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	var txn model.Transaction
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Scopes(orderedItems).Where("transaction_id = ?", txn.ID).Find(&txn.Items).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepo) ReplaceItems(tx *gorm.DB, txn *model.Transaction, items []model.LineItem) error {
	if err := tx.Where("transaction_id = ?", txn.ID).Delete(&model.LineItem{}).Error; err != nil {
		return err
	}
	if err := r.insertItems(tx, txn.ID, items); err != nil {
		return err
	}
	txn.Items = items
	return nil
}

func (r *transactionRepo) Save(tx *gorm.DB, txn *model.Transaction) error {
	return tx.Omit(clause.Associations).Save(txn).Error
}

// Delete soft-deletes the transaction; it disappears from every read.
func (r *transactionRepo) Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) (time.Time, error) {
	deletedAt := time.Now().UTC()
	res := tx.Model(&model.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": deletedAt,
			"deleted_by": deletedBy,
		})
	if res.Error != nil {
		return time.Time{}, res.Error
	}
	if res.RowsAffected == 0 {
		return time.Time{}, gorm.ErrRecordNotFound
	}
	return deletedAt, nil
}

// Query never runs inside a write transaction and takes no locks.
func (r *transactionRepo) Query(filter TransactionFilter) ([]model.Transaction, error) {
	var transactions []model.Transaction
	q := r.db.Preload("Items", orderedItems)
	if filter.PersonName != "" {
		q = q.Where("person_name = ?", filter.PersonName)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Start != nil {
		q = q.Where("date >= ?", filter.Start.UTC())
	}
	if filter.End != nil {
		q = q.Where("date <= ?", filter.End.UTC())
	}
	err := q.Order("date DESC").Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	// Aggregate item quantities per day. Sales bring goods in, purchases take them out.
	rows, err := r.db.Model(&model.LineItem{}).
		Select(`
			DATE(transactions.date) as day,
			COALESCE(SUM(CASE WHEN transactions.type = ? THEN transaction_items.quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN transactions.type = ? THEN transaction_items.quantity ELSE 0 END), 0) as outbound
		`, model.TxSale, model.TxPurchase).
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Where("transactions.deleted_at IS NULL AND transactions.date BETWEEN ? AND ?", startDate.UTC(), endDate.UTC()).
		Group("DATE(transactions.date)").
		Order("day ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}

func (r *transactionRepo) GetDashboardStats(lowStockThreshold int) (*DashboardStats, error) {
	var stats DashboardStats

	if err := r.db.Model(&model.Good{}).Count(&stats.TotalGoods).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&model.Good{}).Where("stock < ?", lowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	// Total valuation (SUM of stock * value)
	row := r.db.Model(&model.Good{}).Select("COALESCE(SUM(stock * value), 0)").Row()
	if err := row.Scan(&stats.TotalValuation); err != nil {
		return nil, err
	}

	return &stats, nil
}

// GetFinancialSummary: income is what hunters paid (purchases), expense is what
// the post paid merchants (sales).
func (r *transactionRepo) GetFinancialSummary(startDate, endDate time.Time) (*FinancialSummary, error) {
	var summary FinancialSummary

	sum := func(txType model.TransactionType, dest *decimal.Decimal) error {
		return r.db.Model(&model.Transaction{}).
			Where("type = ? AND date BETWEEN ? AND ?", txType, startDate.UTC(), endDate.UTC()).
			Select("COALESCE(SUM(total_amount), 0)").
			Row().
			Scan(dest)
	}

	if err := sum(model.TxPurchase, &summary.Income); err != nil {
		return nil, err
	}
	if err := sum(model.TxSale, &summary.Expense); err != nil {
		return nil, err
	}
	summary.Net = summary.Income.Sub(summary.Expense)

	return &summary, nil
}

// GetTopGoods ranks goods by quantity purchased by hunters.
func (r *transactionRepo) GetTopGoods(limit int) ([]TopGood, error) {
	var results []TopGood

	rows, err := r.db.Model(&model.LineItem{}).
		Select(`
			transaction_items.good_id,
			transaction_items.good_name,
			COALESCE(SUM(transaction_items.quantity), 0) as quantity,
			COALESCE(SUM(transaction_items.quantity * transaction_items.unit_price), 0) as revenue
		`).
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Where("transactions.deleted_at IS NULL AND transactions.type = ?", model.TxPurchase).
		Group("transaction_items.good_id, transaction_items.good_name").
		Order("quantity DESC, transaction_items.good_name ASC").
		Limit(limit).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var top TopGood
		if err := rows.Scan(&top.GoodID, &top.GoodName, &top.Quantity, &top.Revenue); err != nil {
			return nil, err
		}
		results = append(results, top)
	}

	return results, rows.Err()
}
