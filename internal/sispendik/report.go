package sispendik

import (
	"github.com/shopspring/decimal"

	"sekolah-backend/internal/models"
)

// Entity is one row of a registry (class, teacher or waste type).
type Entity struct {
	ID    uint
	Label string
}

type Report struct {
	Dimension  Dimension       `json:"dimension"`
	Period     Window          `json:"period"`
	Rows       []GroupTotal    `json:"rows"`
	TotalKg    decimal.Decimal `json:"total_kg"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// Assemble joins aggregated groups back onto the full registry: every entity
// appears exactly once, in registry order, with zero totals when it had no
// deposits in the window. Groups whose key is not in the registry are dropped.
func Assemble(dim Dimension, w Window, registry []Entity, groups []GroupTotal) Report {
	byKey := make(map[uint]GroupTotal, len(groups))
	for _, g := range groups {
		byKey[g.Key] = g
	}

	rep := Report{
		Dimension:  dim,
		Period:     w,
		Rows:       make([]GroupTotal, 0, len(registry)),
		TotalKg:    decimal.Zero,
		TotalValue: decimal.Zero,
	}
	for _, e := range registry {
		row, ok := byKey[e.ID]
		if !ok {
			row = GroupTotal{Key: e.ID, TotalKg: decimal.Zero, TotalValue: decimal.Zero}
		}
		row.Label = e.Label
		rep.Rows = append(rep.Rows, row)
		rep.TotalKg = rep.TotalKg.Add(row.TotalKg)
		rep.TotalValue = rep.TotalValue.Add(row.TotalValue)
	}
	return rep
}

// AssembleClassReport lists every class, ordered by grade then section.
func AssembleClassReport(w Window, classes []models.ClassRoom, groups []GroupTotal) Report {
	registry := make([]Entity, 0, len(classes))
	for _, c := range classes {
		registry = append(registry, Entity{ID: c.ID, Label: c.Label()})
	}
	return Assemble(DimensionClass, w, registry, groups)
}

// AssembleTeacherReport lists every teacher in registry (name) order.
func AssembleTeacherReport(w Window, teachers []models.Teacher, groups []GroupTotal) Report {
	registry := make([]Entity, 0, len(teachers))
	for _, t := range teachers {
		registry = append(registry, Entity{ID: t.ID, Label: t.Name})
	}
	return Assemble(DimensionTeacher, w, registry, groups)
}

// AssembleWasteTypeReport is the per waste type breakdown of a window.
func AssembleWasteTypeReport(w Window, types []models.WasteType, groups []GroupTotal) Report {
	registry := make([]Entity, 0, len(types))
	for _, wt := range types {
		registry = append(registry, Entity{ID: wt.ID, Label: wt.Name})
	}
	return Assemble(DimensionWasteType, w, registry, groups)
}

type MonthTotal struct {
	Month      int             `json:"month"`
	TotalKg    decimal.Decimal `json:"total_kg"`
	TotalValue decimal.Decimal `json:"total_value"`
}

type YearRecap struct {
	Year       int             `json:"year"`
	OwnerType  string          `json:"owner_type"`
	Months     []MonthTotal    `json:"months"`
	TotalKg    decimal.Decimal `json:"total_kg"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// FillYear expands sparse month totals to all twelve months.
func FillYear(year int, ownerType string, totals []MonthTotal) YearRecap {
	rec := YearRecap{
		Year:       year,
		OwnerType:  ownerType,
		Months:     make([]MonthTotal, 12),
		TotalKg:    decimal.Zero,
		TotalValue: decimal.Zero,
	}
	for i := range rec.Months {
		rec.Months[i] = MonthTotal{Month: i + 1, TotalKg: decimal.Zero, TotalValue: decimal.Zero}
	}
	for _, t := range totals {
		if t.Month < 1 || t.Month > 12 {
			continue
		}
		m := &rec.Months[t.Month-1]
		m.TotalKg = m.TotalKg.Add(t.TotalKg)
		m.TotalValue = m.TotalValue.Add(t.TotalValue)
		rec.TotalKg = rec.TotalKg.Add(t.TotalKg)
		rec.TotalValue = rec.TotalValue.Add(t.TotalValue)
	}
	return rec
}
