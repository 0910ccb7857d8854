package models

import "github.com/shopspring/decimal"

// Expense is a single dated spend in a user's ledger. Records are appended
// and deleted, never updated in place.
type Expense struct {
	ID           uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Date         Date            `gorm:"type:text;not null" json:"date"`
	Category     string          `gorm:"not null" json:"category"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `gorm:"type:real;not null" json:"amount"`
	ReceiptPhoto *string         `gorm:"column:receipt_photo" json:"-"`
}

// HasReceipt reports whether a receipt image is attached.
func (e Expense) HasReceipt() bool {
	return e.ReceiptPhoto != nil && *e.ReceiptPhoto != ""
}
