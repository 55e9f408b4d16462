package entity

import (
	"time"

	"github.com/google/uuid"
)

// Receipt is a submitted purchase receipt as it appears on the wire.
type Receipt struct {
	Retailer     string `json:"retailer" yaml:"retailer"`
	PurchaseDate string `json:"purchaseDate" yaml:"purchaseDate"` // YYYY-MM-DD
	PurchaseTime string `json:"purchaseTime" yaml:"purchaseTime"` // HH:MM, 24h
	Items        []Item `json:"items" yaml:"items"`
	Total        string `json:"total" yaml:"total"` // decimal, two fractional digits
}

// Item is a single line on a receipt.
type Item struct {
	ShortDescription string `json:"shortDescription" yaml:"shortDescription"`
	Price            string `json:"price" yaml:"price"`
}

// ScoredReceipt is an accepted receipt together with its points.
type ScoredReceipt struct {
	ID          uuid.UUID `json:"id"`
	Receipt     Receipt   `json:"receipt"`
	Points      int       `json:"points"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"createdAt"`
}
