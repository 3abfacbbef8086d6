package models

import "testing"

func TestHoldsPartner(t *testing.T) {
	withPartner := map[MatchState]bool{
		MatchFull: true, MatchPartial: true,
		MatchTimeShiftFull: true, MatchTimeShiftPartial: true,
	}
	for _, s := range MatchStates {
		if got := s.HoldsPartner(); got != withPartner[s] {
			t.Errorf("%s.HoldsPartner() = %v, want %v", s, got, withPartner[s])
		}
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to MatchState
		want     bool
	}{
		{MatchNone, MatchFull, true},
		{MatchNone, MatchBye, true},
		{MatchNone, MatchTimeShiftPartial, true},
		{MatchNone, MatchNone, false},
		{MatchTimeShiftFull, MatchFull, true},
		{MatchTimeShiftFull, MatchPartial, true},
		{MatchTimeShiftPartial, MatchPartial, true},
		{MatchTimeShiftPartial, MatchFull, false},
		{MatchFull, MatchDupe, true},
		{MatchBye, MatchDupe, true},
		{MatchFull, MatchPartial, false},
		{MatchDupe, MatchFull, false},
		{MatchRemoved, MatchBye, false},
		{MatchNIL, MatchDupe, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []MatchState{MatchDupe, MatchNIL, MatchOutsideContest, MatchRemoved, MatchPartial} {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", s)
		}
	}
	for _, s := range []MatchState{MatchNone, MatchTimeShiftFull, MatchTimeShiftPartial, MatchFull, MatchBye} {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
	}
}
