package sispendik

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"sekolah-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("data tidak ditemukan")
	ErrDuplicate = errors.New("data dengan nama tersebut sudah ada")
	ErrInUse     = errors.New("data masih dipakai oleh setoran")
)

type DepositFilter struct {
	OwnerType   models.OwnerType
	OwnerID     uint
	WasteTypeID uint
	From, To    time.Time // half-open, zero = unbounded
}

// Store is the relational side of sispendik. Each method is one transaction.
type Store interface {
	CreateWasteType(ctx context.Context, wt *models.WasteType) error
	ListWasteTypes(ctx context.Context) ([]models.WasteType, error)
	GetWasteType(ctx context.Context, id uint) (models.WasteType, error)
	UpdateWasteType(ctx context.Context, wt *models.WasteType) error
	DeleteWasteType(ctx context.Context, id uint) error

	CreateTeacher(ctx context.Context, t *models.Teacher) error
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
	GetTeacher(ctx context.Context, id uint) (models.Teacher, error)
	UpdateTeacher(ctx context.Context, t *models.Teacher) error
	DeleteTeacher(ctx context.Context, id uint) error

	ListClasses(ctx context.Context) ([]models.ClassRoom, error)
	GetClass(ctx context.Context, id uint) (models.ClassRoom, error)
	// SeedClasses inserts the missing grade/section combinations and reports how many were added.
	SeedClasses(ctx context.Context, sections []string) (int, error)

	CreateDeposit(ctx context.Context, d *models.Deposit) error
	GetDeposit(ctx context.Context, id uint) (models.Deposit, error)
	ListDeposits(ctx context.Context, f DepositFilter) ([]models.Deposit, error)
	UpdateDeposit(ctx context.Context, d *models.Deposit) error
	DeleteDeposit(ctx context.Context, id uint) error
	// ResetPeriod deletes every deposit of the owner created in [from, to) and
	// returns the deleted rows as they were at delete time.
	ResetPeriod(ctx context.Context, ownerType models.OwnerType, ownerID uint, from, to time.Time) ([]models.Deposit, error)
	// RestoreDeposits re-inserts deposits under new ids, all or nothing.
	// A missing waste type, class or teacher yields ErrNotFound.
	RestoreDeposits(ctx context.Context, deposits []models.Deposit) error

	AggregateWindow(ctx context.Context, dim Dimension, from, to time.Time) ([]GroupTotal, error)
	MonthlyTotals(ctx context.Context, year int, ownerType models.OwnerType, loc *time.Location) ([]MonthTotal, error)
}

// classGrades lists the grade levels seeded for every section.
func classGrades() []int {
	grades := make([]int, 0, models.MaxGrade-models.MinGrade+1)
	for g := models.MinGrade; g <= models.MaxGrade; g++ {
		grades = append(grades, g)
	}
	return grades
}
