package officers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerformanceScore(t *testing.T) {
	cases := []struct {
		name     string
		total    int
		approved int
		days     float64
		want     float64
	}{
		{"no loans", 0, 0, 10, 0},
		{"all approved instantly", 1, 1, 0, 100},
		{"three of four in two weeks", 4, 3, 15, 75},
		{"slow book caps speed", 10, 5, 90, 35},
		{"one third approved", 3, 1, 15, 45.83},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, PerformanceScore(tc.total, tc.approved, tc.days), 1e-9)
		})
	}
}
