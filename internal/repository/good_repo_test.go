package repository_test

import (
	"testing"

	"go-trading-post/internal/model"
	"go-trading-post/internal/repository"
	"go-trading-post/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedGood(t *testing.T, repo repository.GoodRepository, name string, category model.Category, stock int, value int64) *model.Good {
	t.Helper()
	good := &model.Good{
		Name:        name,
		Description: "A fine " + name,
		Category:    category,
		Material:    "Steel",
		Value:       decimal.NewFromInt(value),
		Stock:       stock,
		Weight:      2,
	}
	require.NoError(t, repo.Create(good))
	return good
}

func TestAdjustStock_Guard(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewGoodRepo(db)
	sword := seedGood(t, repo, "Sword", model.CategoryWeapon, 5, 100)

	// Within stock
	updated, err := repo.AdjustStock(db, sword.ID, -3, "clerk")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Stock)
	assert.Equal(t, 1, updated.Version)
	assert.Equal(t, "clerk", updated.UpdatedBy)

	// Below zero is refused and the row is untouched
	unchanged, err := repo.AdjustStock(db, sword.ID, -3, "clerk")
	require.ErrorIs(t, err, repository.ErrNegativeStock)
	require.NotNil(t, unchanged)
	assert.Equal(t, 2, unchanged.Stock)
	assert.Equal(t, 1, unchanged.Version)

	// Exactly to zero is fine
	updated, err = repo.AdjustStock(db, sword.ID, -2, "clerk")
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)

	// Increments always succeed
	updated, err = repo.AdjustStock(db, sword.ID, 7, "clerk")
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)

	// Unknown good
	_, err = repo.AdjustStock(db, uuid.New(), 1, "clerk")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateIfMissing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewGoodRepo(db)
	existing := seedGood(t, repo, "Herb", model.CategoryIngredient, 4, 3)

	err := db.Transaction(func(tx *gorm.DB) error {
		// Existing name returns the stored row untouched
		got, err := repo.CreateIfMissing(tx, &model.Good{Name: "Herb", Category: model.CategoryOther, Weight: 1})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, got.ID)
		assert.Equal(t, model.CategoryIngredient, got.Category)
		assert.Equal(t, 4, got.Stock)

		// New name is inserted with zero stock
		created, err := repo.CreateIfMissing(tx, &model.Good{Name: "Root", Category: model.CategoryOther, Weight: 1})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, 0, created.Stock)
		return nil
	})
	require.NoError(t, err)

	goods, err := repo.FindAll(repository.GoodFilter{})
	require.NoError(t, err)
	assert.Len(t, goods, 2)
}

func TestLockForUpdate_SelectsByIDOrName(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewGoodRepo(db)
	sword := seedGood(t, repo, "Sword", model.CategoryWeapon, 5, 100)
	shield := seedGood(t, repo, "Shield", model.CategoryArmor, 5, 80)
	seedGood(t, repo, "Potion", model.CategoryPotion, 5, 10)

	err := db.Transaction(func(tx *gorm.DB) error {
		locked, err := repo.LockForUpdate(tx, []uuid.UUID{sword.ID}, []string{"Shield", "Missing"})
		require.NoError(t, err)
		require.Len(t, locked, 2)
		assert.ElementsMatch(t, []uuid.UUID{sword.ID, shield.ID}, []uuid.UUID{locked[0].ID, locked[1].ID})
		assert.True(t, locked[0].ID.String() < locked[1].ID.String())

		none, err := repo.LockForUpdate(tx, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
		return nil
	})
	require.NoError(t, err)
}

func TestGoodFindAll_Filters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewGoodRepo(db)
	seedGood(t, repo, "Silver Sword", model.CategoryWeapon, 5, 100)
	seedGood(t, repo, "Iron Shield", model.CategoryArmor, 5, 80)
	seedGood(t, repo, "Healing Potion", model.CategoryPotion, 5, 10)

	tests := []struct {
		name   string
		filter repository.GoodFilter
		want   []string
	}{
		{"all, by name", repository.GoodFilter{}, []string{"Healing Potion", "Iron Shield", "Silver Sword"}},
		{"name is case insensitive", repository.GoodFilter{Name: "sword"}, []string{"Silver Sword"}},
		{"category", repository.GoodFilter{Category: model.CategoryArmor}, []string{"Iron Shield"}},
		{"description", repository.GoodFilter{Description: "potion"}, []string{"Healing Potion"}},
		{"material", repository.GoodFilter{Material: "steel"}, []string{"Healing Potion", "Iron Shield", "Silver Sword"}},
		{"no match", repository.GoodFilter{Name: "axe"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goods, err := repo.FindAll(tt.filter)
			require.NoError(t, err)
			names := make([]string, 0, len(goods))
			for _, g := range goods {
				names = append(names, g.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestGoodDelete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewGoodRepo(db)
	sword := seedGood(t, repo, "Sword", model.CategoryWeapon, 5, 100)

	require.NoError(t, repo.Delete(sword.ID))
	_, err := repo.FindByID(nil, sword.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.ErrorIs(t, repo.Delete(sword.ID), gorm.ErrRecordNotFound)

	// The name is free again
	seedGood(t, repo, "Sword", model.CategoryWeapon, 1, 100)
}

func TestGoodStockCheckConstraint(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewGoodRepo(db)
	sword := seedGood(t, repo, "Sword", model.CategoryWeapon, 1, 100)

	err := db.Model(&model.Good{}).Where("id = ?", sword.ID).Update("stock", -1).Error
	require.Error(t, err)
}
