package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type OwnerType string

const (
	OwnerClass   OwnerType = "class"
	OwnerTeacher OwnerType = "teacher"
)

var ErrInvalidOwner = errors.New("setoran harus dimiliki tepat satu kelas atau satu guru")

// Deposit: satu setoran sampah (kg) dari kelas ATAU guru.
// Nilai rupiah tidak disimpan, dihitung dari harga jenis sampah saat ini.
type Deposit struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ClassID     *uint           `gorm:"index" json:"class_id"`
	Class       *ClassRoom      `gorm:"constraint:OnDelete:RESTRICT" json:"class,omitempty"`
	TeacherID   *uint           `gorm:"index;check:chk_deposits_owner,(class_id IS NULL) <> (teacher_id IS NULL)" json:"teacher_id"`
	Teacher     *Teacher        `gorm:"constraint:OnDelete:RESTRICT" json:"teacher,omitempty"`
	WasteTypeID uint            `gorm:"index;not null" json:"waste_type_id"`
	WasteType   WasteType       `gorm:"constraint:OnDelete:RESTRICT" json:"waste_type"`
	WeightKg    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"weight_kg"`
	CreatedAt   time.Time       `gorm:"index;not null" json:"created_at"` // tanggal setor
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Owner returns which registry entity the deposit was logged against.
func (d Deposit) Owner() (OwnerType, uint) {
	if d.ClassID != nil {
		return OwnerClass, *d.ClassID
	}
	if d.TeacherID != nil {
		return OwnerTeacher, *d.TeacherID
	}
	return "", 0
}

func (d *Deposit) SetOwner(t OwnerType, id uint) {
	d.ClassID, d.TeacherID = nil, nil
	switch t {
	case OwnerClass:
		d.ClassID = &id
	case OwnerTeacher:
		d.TeacherID = &id
	}
}

func (d Deposit) Validate() error {
	if (d.ClassID == nil) == (d.TeacherID == nil) {
		return ErrInvalidOwner
	}
	return nil
}

// Value is weight × current price of the waste type.
func (d Deposit) Value() decimal.Decimal {
	return d.WeightKg.Mul(d.WasteType.PricePerKg)
}
