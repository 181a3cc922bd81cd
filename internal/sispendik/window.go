package sispendik

import (
	"fmt"
	"time"
)

// Window is an aggregation period: one calendar month.
type Window struct {
	Month int `json:"month" query:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" query:"year" validate:"required,min=1"`
}

// Range returns the half-open interval [first day of month, first day of next month) in loc.
func (w Window) Range(loc *time.Location) (time.Time, time.Time) {
	from := time.Date(w.Year, time.Month(w.Month), 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

func (w Window) Contains(t time.Time, loc *time.Location) bool {
	from, to := w.Range(loc)
	return !t.Before(from) && t.Before(to)
}

func (w Window) String() string {
	return fmt.Sprintf("%04d-%02d", w.Year, w.Month)
}

func WindowOf(t time.Time, loc *time.Location) Window {
	t = t.In(loc)
	return Window{Month: int(t.Month()), Year: t.Year()}
}
