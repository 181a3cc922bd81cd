package sispendik

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowRange(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Skip("tzdata not available")
	}

	w := Window{Month: 12, Year: 2024}
	from, to := w.Range(jakarta)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, jakarta), from)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, jakarta), to)
	assert.Equal(t, "2024-12", w.String())

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"first instant", from, true},
		{"last day", time.Date(2024, 12, 31, 23, 59, 59, 0, jakarta), true},
		{"next month excluded", to, false},
		{"previous month", time.Date(2024, 11, 30, 23, 0, 0, 0, jakarta), false},
		// 2024-11-30 17:30 UTC is already December 1st in Jakarta.
		{"utc instant in local month", time.Date(2024, 11, 30, 17, 30, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Contains(tt.at, jakarta))
		})
	}
}

func TestWindowOf(t *testing.T) {
	at := time.Date(2024, 3, 31, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, Window{Month: 3, Year: 2024}, WindowOf(at, time.UTC))
	assert.Equal(t, Window{Month: 4, Year: 2024}, WindowOf(at, time.FixedZone("WIB", 7*3600)))
}
