package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WasteType: jenis sampah yang diterima bank sampah beserta harga per kg
type WasteType struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Name       string          `gorm:"size:100;not null" json:"name"`
	PricePerKg decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"price_per_kg"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
