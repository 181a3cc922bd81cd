package sispendik

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type Dimension string

const (
	DimensionClass     Dimension = "class"
	DimensionTeacher   Dimension = "teacher"
	DimensionWasteType Dimension = "waste_type"
)

func ParseDimension(s string) (Dimension, bool) {
	switch Dimension(s) {
	case DimensionClass, DimensionTeacher, DimensionWasteType:
		return Dimension(s), true
	case "classes":
		return DimensionClass, true
	case "teachers":
		return DimensionTeacher, true
	case "waste-types", "waste_types":
		return DimensionWasteType, true
	}
	return "", false
}

// LedgerRow is one deposit projected onto a grouping dimension.
type LedgerRow struct {
	GroupKey      uint
	GroupLabel    string
	WasteTypeName string
	WeightKg      decimal.Decimal
	PricePerKg    decimal.Decimal
}

// GroupTotal is the aggregate of one group within a window. WasteTypes is nil
// for groups without deposits.
type GroupTotal struct {
	Key        uint            `json:"id"`
	Label      string          `json:"label"`
	TotalKg    decimal.Decimal `json:"total_kg"`
	TotalValue decimal.Decimal `json:"total_value"`
	WasteTypes []string        `json:"waste_types"`
}

// WasteTypeList renders the distinct waste types for display.
func (g GroupTotal) WasteTypeList() string {
	return strings.Join(g.WasteTypes, ", ")
}

// Aggregate groups rows by GroupKey, summing weight and weight×price exactly.
// Output is ordered by label, then key.
func Aggregate(rows []LedgerRow) []GroupTotal {
	type acc struct {
		total GroupTotal
		names map[string]struct{}
	}
	groups := make(map[uint]*acc)
	for _, r := range rows {
		a, ok := groups[r.GroupKey]
		if !ok {
			a = &acc{
				total: GroupTotal{Key: r.GroupKey, Label: r.GroupLabel, TotalKg: decimal.Zero, TotalValue: decimal.Zero},
				names: make(map[string]struct{}),
			}
			groups[r.GroupKey] = a
		}
		a.total.TotalKg = a.total.TotalKg.Add(r.WeightKg)
		a.total.TotalValue = a.total.TotalValue.Add(r.WeightKg.Mul(r.PricePerKg))
		if r.WasteTypeName != "" {
			a.names[r.WasteTypeName] = struct{}{}
		}
	}

	out := make([]GroupTotal, 0, len(groups))
	for _, a := range groups {
		names := make([]string, 0, len(a.names))
		for n := range a.names {
			names = append(names, n)
		}
		sort.Strings(names)
		a.total.WasteTypes = names
		out = append(out, a.total)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Key < out[j].Key
	})
	return out
}
