package model

import "time"

// Bank groups the accounts held at one institution.
type Bank struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Inactive  bool      `gorm:"not null;default:false" json:"inactive"`
	CreatedAt time.Time `json:"created_at"`
}

// Account is a ledger owner. It carries no balance of its own: the balance
// is always the running balance of its last ledger entry.
type Account struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BankID    uint      `gorm:"index;not null" json:"bank_id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Inactive  bool      `gorm:"not null;default:false" json:"inactive"`
	CreatedAt time.Time `json:"created_at"`
}
