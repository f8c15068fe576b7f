package model

import "github.com/shopspring/decimal"

type Category string

const (
	CategoryWeapon     Category = "Weapon"
	CategoryArmor      Category = "Armor"
	CategoryPotion     Category = "Potion"
	CategoryIngredient Category = "Ingredient"
	CategoryTool       Category = "Tool"
	CategoryFood       Category = "Food"
	CategoryValuable   Category = "Valuable"
	CategoryOther      Category = "Other"
)

// Categories lists every accepted category, in display order.
var Categories = []Category{
	CategoryWeapon, CategoryArmor, CategoryPotion, CategoryIngredient,
	CategoryTool, CategoryFood, CategoryValuable, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Good is a stocked item. Stock only moves through transactions or an explicit
// goods update, and can never go below zero.
type Good struct {
	BaseModel
	Name        string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required,max=255"`
	Description string          `gorm:"type:text" json:"description"`
	Category    Category        `gorm:"type:varchar(20);not null;default:Other;index" json:"category" validate:"omitempty,oneof=Weapon Armor Potion Ingredient Tool Food Valuable Other"`
	Material    string          `gorm:"type:varchar(100)" json:"material"`
	Value       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"value" validate:"gte=0,money"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0" json:"stock" validate:"gte=0"`
	Weight      float64         `gorm:"not null" json:"weight" validate:"gte=0"`
	Version     int             `gorm:"not null;default:0" json:"version"`
}

// StockChange records the effect one line item had on a good.
type StockChange struct {
	GoodID   string `json:"good_id"`
	GoodName string `json:"good_name"`
	Delta    int    `json:"delta"`
	Stock    int    `json:"stock"`
}
