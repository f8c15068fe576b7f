package model

import "github.com/google/uuid"

type PartyKind string

const (
	PartyHunter   PartyKind = "Hunter"
	PartyMerchant PartyKind = "Merchant"
)

var HunterRaces = []string{"Human", "Elf", "Dwarf", "Orc", "Goblin", "Vampire", "Werewolf", "Demon", "Undead"}

var MerchantSpecialties = []string{"Blacksmith", "Alchemist", "Armorer", "Herbalist", "General Goods", "Weapons", "Other"}

// Party is a hunter or a merchant. Names are unique per kind.
type Party struct {
	BaseModel
	Kind      PartyKind `gorm:"type:varchar(10);not null;uniqueIndex:idx_party_kind_name" json:"kind"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_party_kind_name" json:"name" validate:"required,max=255"`
	Race      string    `gorm:"type:varchar(20)" json:"race,omitempty"`
	Specialty string    `gorm:"type:varchar(30)" json:"specialty,omitempty"`
	Location  string    `gorm:"type:varchar(255)" json:"location"`
}

func (p *Party) Ref() PartyRef {
	return PartyRef{ID: p.ID, Kind: p.Kind, Name: p.Name}
}

// PartyRef is the read-only view of a party the ledger keeps.
type PartyRef struct {
	ID   uuid.UUID `json:"id"`
	Kind PartyKind `json:"kind"`
	Name string    `json:"name"`
}
