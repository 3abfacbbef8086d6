package report

import (
	"strings"
	"testing"
)

func TestCountChanges(t *testing.T) {
	tests := []struct {
		name  string
		bands []string
		want  int
	}{
		{"empty", nil, 0},
		{"single band", []string{"20m", "20m", "20m"}, 0},
		{"one change", []string{"20m", "15m"}, 1},
		{"back and forth", []string{"20m", "15m", "20m", "15m"}, 3},
		{"runs", []string{"40m", "40m", "20m", "20m", "20m", "15m"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countChanges(tt.bands); got != tt.want {
				t.Errorf("countChanges(%v) = %d, want %d", tt.bands, got, tt.want)
			}
		})
	}
}

func TestScoreSummaryVerified(t *testing.T) {
	tests := []struct {
		name string
		s    ScoreSummary
		want int
	}{
		{"clean log", ScoreSummary{Raw: 100}, 100},
		{"dupes and busts", ScoreSummary{Raw: 100, Dupes: 3, Busted: 5}, 92},
		{"nil penalty doubles", ScoreSummary{Raw: 100, NIL: 4}, 92},
		{"outside contest", ScoreSummary{Raw: 100, Outside: 2}, 98},
		{"floor at zero", ScoreSummary{Raw: 3, NIL: 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Verified(); got != tt.want {
				t.Errorf("Verified() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Callsign", "QSOs"},
		[][]string{{"W6YX", "412"}, {"K5TR", "388"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "W6YX") || !strings.Contains(out, "412") {
		t.Errorf("render missing rows:\n%s", out)
	}
	if !strings.Contains(out, "Callsign") {
		t.Errorf("render missing header:\n%s", out)
	}
}
