package sispendik

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sekolah-backend/internal/models"
)

// wasteTypeSep separates names inside STRING_AGG; names may contain commas.
const wasteTypeSep = "\x1f"

// GormStore is the Postgres Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// translate maps gorm errors (TranslateError enabled) onto package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrInUse
	}
	return errors.WithStack(err)
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Waste types

func (s *GormStore) CreateWasteType(ctx context.Context, wt *models.WasteType) error {
	return translate(s.db.WithContext(ctx).Create(wt).Error)
}

func (s *GormStore) ListWasteTypes(ctx context.Context) ([]models.WasteType, error) {
	var out []models.WasteType
	err := s.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) GetWasteType(ctx context.Context, id uint) (models.WasteType, error) {
	var wt models.WasteType
	err := s.db.WithContext(ctx).First(&wt, "id = ?", id).Error
	return wt, translate(err)
}

func (s *GormStore) UpdateWasteType(ctx context.Context, wt *models.WasteType) error {
	res := s.db.WithContext(ctx).Model(&models.WasteType{}).Where("id = ?", wt.ID).Updates(map[string]interface{}{
		"name":         wt.Name,
		"price_per_kg": wt.PricePerKg,
	})
	if err := affected(res); err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).First(wt, "id = ?", wt.ID).Error)
}

func (s *GormStore) DeleteWasteType(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Delete(&models.WasteType{}, "id = ?", id))
}

// Teachers

func (s *GormStore) CreateTeacher(ctx context.Context, t *models.Teacher) error {
	return translate(s.db.WithContext(ctx).Create(t).Error)
}

func (s *GormStore) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	var out []models.Teacher
	err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) GetTeacher(ctx context.Context, id uint) (models.Teacher, error) {
	var t models.Teacher
	err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error
	return t, translate(err)
}

func (s *GormStore) UpdateTeacher(ctx context.Context, t *models.Teacher) error {
	res := s.db.WithContext(ctx).Model(&models.Teacher{}).Where("id = ?", t.ID).Update("name", t.Name)
	if err := affected(res); err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).First(t, "id = ?", t.ID).Error)
}

func (s *GormStore) DeleteTeacher(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Teacher{}, "id = ?", id))
}

// Classes

func (s *GormStore) ListClasses(ctx context.Context) ([]models.ClassRoom, error) {
	var out []models.ClassRoom
	err := s.db.WithContext(ctx).Order("grade ASC, section ASC").Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) GetClass(ctx context.Context, id uint) (models.ClassRoom, error) {
	var c models.ClassRoom
	err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return c, translate(err)
}

func (s *GormStore) SeedClasses(ctx context.Context, sections []string) (int, error) {
	var added int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, g := range classGrades() {
			for _, sec := range sections {
				res := tx.Clauses(clause.OnConflict{DoNothing: true}).
					Create(&models.ClassRoom{Grade: g, Section: sec})
				if res.Error != nil {
					return res.Error
				}
				added += int(res.RowsAffected)
			}
		}
		return nil
	})
	return added, translate(err)
}

// Deposits

func (s *GormStore) CreateDeposit(ctx context.Context, d *models.Deposit) error {
	if err := d.Validate(); err != nil {
		return errors.WithStack(err)
	}
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(d).Error)
}

func (s *GormStore) depositQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("WasteType").Preload("Class").Preload("Teacher")
}

func (s *GormStore) GetDeposit(ctx context.Context, id uint) (models.Deposit, error) {
	var d models.Deposit
	err := s.depositQuery(ctx).First(&d, "id = ?", id).Error
	return d, translate(err)
}

func (s *GormStore) ListDeposits(ctx context.Context, f DepositFilter) ([]models.Deposit, error) {
	q := s.depositQuery(ctx)
	switch f.OwnerType {
	case models.OwnerClass:
		q = q.Where("class_id IS NOT NULL")
		if f.OwnerID > 0 {
			q = q.Where("class_id = ?", f.OwnerID)
		}
	case models.OwnerTeacher:
		q = q.Where("teacher_id IS NOT NULL")
		if f.OwnerID > 0 {
			q = q.Where("teacher_id = ?", f.OwnerID)
		}
	}
	if f.WasteTypeID > 0 {
		q = q.Where("waste_type_id = ?", f.WasteTypeID)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}

	var out []models.Deposit
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) UpdateDeposit(ctx context.Context, d *models.Deposit) error {
	res := s.db.WithContext(ctx).Model(&models.Deposit{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
		"waste_type_id": d.WasteTypeID,
		"weight_kg":     d.WeightKg,
		"created_at":    d.CreatedAt,
	})
	return affected(res)
}

func (s *GormStore) DeleteDeposit(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Deposit{}, "id = ?", id))
}

func (s *GormStore) ResetPeriod(ctx context.Context, ownerType models.OwnerType, ownerID uint, from, to time.Time) ([]models.Deposit, error) {
	col, err := ownerColumn(ownerType)
	if err != nil {
		return nil, err
	}
	var deleted []models.Deposit
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.Returning{}).
			Where(col+" = ? AND created_at >= ? AND created_at < ?", ownerID, from, to).
			Delete(&deleted).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return deleted, nil
}

func (s *GormStore) RestoreDeposits(ctx context.Context, deposits []models.Deposit) error {
	if len(deposits) == 0 {
		return nil
	}
	rows := make([]models.Deposit, 0, len(deposits))
	for _, d := range deposits {
		if err := d.Validate(); err != nil {
			return errors.WithStack(err)
		}
		d.ID = 0
		d.WasteType, d.Class, d.Teacher = models.WasteType{}, nil, nil
		rows = append(rows, d)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(&rows).Error
	})
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrNotFound
	}
	return translate(err)
}

func ownerColumn(t models.OwnerType) (string, error) {
	switch t {
	case models.OwnerClass:
		return "class_id", nil
	case models.OwnerTeacher:
		return "teacher_id", nil
	}
	return "", errors.Errorf("owner type tidak dikenal: %q", t)
}

// Aggregation

var aggregateSQL = map[Dimension]string{
	DimensionClass: `
		SELECT c.id AS group_key,
			   CONCAT(c.grade, c.section) AS group_label,
			   SUM(d.weight_kg) AS total_kg,
			   SUM(d.weight_kg * w.price_per_kg) AS total_value,
			   STRING_AGG(DISTINCT w.name, chr(31) ORDER BY w.name) AS waste_types
		FROM deposits d
		JOIN class_rooms c ON c.id = d.class_id
		JOIN waste_types w ON w.id = d.waste_type_id
		WHERE d.created_at >= ? AND d.created_at < ?
		GROUP BY c.id, c.grade, c.section
		ORDER BY group_label ASC, c.id ASC;
	`,
	DimensionTeacher: `
		SELECT t.id AS group_key,
			   t.name AS group_label,
			   SUM(d.weight_kg) AS total_kg,
			   SUM(d.weight_kg * w.price_per_kg) AS total_value,
			   STRING_AGG(DISTINCT w.name, chr(31) ORDER BY w.name) AS waste_types
		FROM deposits d
		JOIN teachers t ON t.id = d.teacher_id
		JOIN waste_types w ON w.id = d.waste_type_id
		WHERE d.created_at >= ? AND d.created_at < ?
		GROUP BY t.id, t.name
		ORDER BY group_label ASC, t.id ASC;
	`,
	DimensionWasteType: `
		SELECT w.id AS group_key,
			   w.name AS group_label,
			   SUM(d.weight_kg) AS total_kg,
			   SUM(d.weight_kg * w.price_per_kg) AS total_value,
			   w.name AS waste_types
		FROM deposits d
		JOIN waste_types w ON w.id = d.waste_type_id
		WHERE d.created_at >= ? AND d.created_at < ?
		GROUP BY w.id, w.name
		ORDER BY group_label ASC, w.id ASC;
	`,
}

func (s *GormStore) AggregateWindow(ctx context.Context, dim Dimension, from, to time.Time) ([]GroupTotal, error) {
	sql, ok := aggregateSQL[dim]
	if !ok {
		return nil, errors.Errorf("dimensi tidak dikenal: %q", dim)
	}

	type row struct {
		GroupKey   uint
		GroupLabel string
		TotalKg    decimal.Decimal
		TotalValue decimal.Decimal
		WasteTypes string
	}
	var rows []row
	if err := s.db.WithContext(ctx).Raw(sql, from, to).Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}

	out := make([]GroupTotal, 0, len(rows))
	for _, r := range rows {
		g := GroupTotal{
			Key:        r.GroupKey,
			Label:      r.GroupLabel,
			TotalKg:    r.TotalKg,
			TotalValue: r.TotalValue,
			WasteTypes: []string{},
		}
		if r.WasteTypes != "" {
			g.WasteTypes = strings.Split(r.WasteTypes, wasteTypeSep)
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *GormStore) MonthlyTotals(ctx context.Context, year int, ownerType models.OwnerType, loc *time.Location) ([]MonthTotal, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(1, 0, 0)

	q := s.db.WithContext(ctx).
		Table("deposits AS d").
		Select(`EXTRACT(MONTH FROM d.created_at AT TIME ZONE ?)::int AS month,
			SUM(d.weight_kg) AS total_kg,
			SUM(d.weight_kg * w.price_per_kg) AS total_value`, loc.String()).
		Joins("JOIN waste_types w ON w.id = d.waste_type_id").
		Where("d.created_at >= ? AND d.created_at < ?", from, to)
	if ownerType != "" {
		col, err := ownerColumn(ownerType)
		if err != nil {
			return nil, err
		}
		q = q.Where("d." + col + " IS NOT NULL")
	}

	var out []MonthTotal
	err := q.Group("1").Order("1").Scan(&out).Error
	return out, translate(err)
}
