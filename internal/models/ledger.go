package models

import (
	"time"
)

// Direction of a ledger entry
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// Known source categories
const (
	SourceRedemption = "REDEMPTION"
	SourcePurchase   = "PURCHASE"
	SourceAdjustment = "ADJUSTMENT"
)

// LedgerEntry is one row of a customer's point statement. Immutable once
// fetched; the backend is the sole writer.
type LedgerEntry struct {
	ID             int       `json:"id"`
	Direction      Direction `json:"direction"` // DEBIT or CREDIT
	Source         string    `json:"source"`
	Points         int64     `json:"points"`
	Balance        int64     `json:"balance"` // Resulting balance after this entry
	Note           string    `json:"note,omitempty"`
	RedemptionCode string    `json:"redemptionCode,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
