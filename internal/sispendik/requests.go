package sispendik

import "github.com/shopspring/decimal"

type WasteTypeRequest struct {
	Name       string          `json:"name" validate:"required,max=100"`
	PricePerKg decimal.Decimal `json:"price_per_kg" validate:"dec_gte0,dec_scale2"`
}

type TeacherRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type DepositRequest struct {
	OwnerType   string          `json:"owner_type" validate:"required,oneof=class teacher"`
	OwnerID     uint            `json:"owner_id" validate:"required"`
	WasteTypeID uint            `json:"waste_type_id" validate:"required"`
	WeightKg    decimal.Decimal `json:"weight_kg" validate:"dec_gt0,dec_scale2"`
	DepositedAt string          `json:"deposited_at" validate:"omitempty,datetime=2006-01-02"` // kosong = sekarang
}

// UpdateDepositRequest cannot move a deposit to another owner.
type UpdateDepositRequest struct {
	WasteTypeID uint            `json:"waste_type_id" validate:"required"`
	WeightKg    decimal.Decimal `json:"weight_kg" validate:"dec_gt0,dec_scale2"`
	DepositedAt string          `json:"deposited_at" validate:"omitempty,datetime=2006-01-02"`
}

type DepositQuery struct {
	OwnerType   string `query:"owner_type" json:"owner_type" validate:"omitempty,oneof=class teacher"`
	OwnerID     uint   `query:"owner_id" json:"owner_id"`
	WasteTypeID uint   `query:"waste_type_id" json:"waste_type_id"`
	Month       int    `query:"month" json:"month" validate:"omitempty,min=1,max=12"`
	Year        int    `query:"year" json:"year" validate:"required_with=Month,gte=0"`
}

type ResetRequest struct {
	OwnerType string `json:"owner_type" validate:"required,oneof=class teacher"`
	OwnerID   uint   `json:"owner_id" validate:"required"`
	Month     int    `json:"month" validate:"required,min=1,max=12"`
	Year      int    `json:"year" validate:"required,min=1"`
}

type ResetResult struct {
	Period  Window `json:"period"`
	Deleted int64  `json:"deleted"`
}

type RecapQuery struct {
	Year      int    `query:"year" json:"year" validate:"required,min=1"`
	OwnerType string `query:"owner_type" json:"owner_type" validate:"omitempty,oneof=class teacher"`
}
