package models

// MatchState is the disposition of a QSO in the cross-match state machine.
// Every QSO starts as None and ends in one of the terminal states; the two
// TimeShift states are provisional and are resolved to Full or Partial.
type MatchState string

const (
	MatchNone             MatchState = "None"
	MatchFull             MatchState = "Full"
	MatchPartial          MatchState = "Partial"
	MatchDupe             MatchState = "Dupe"
	MatchNIL              MatchState = "NIL"
	MatchOutsideContest   MatchState = "OutsideContest"
	MatchRemoved          MatchState = "Removed"
	MatchTimeShiftFull    MatchState = "TimeShiftFull"
	MatchTimeShiftPartial MatchState = "TimeShiftPartial"
	MatchBye              MatchState = "Bye"
)

// MatchStates lists every legal state value, in the order the schema declares them.
var MatchStates = []MatchState{
	MatchNone, MatchFull, MatchPartial, MatchDupe, MatchNIL,
	MatchOutsideContest, MatchRemoved, MatchTimeShiftFull,
	MatchTimeShiftPartial, MatchBye,
}

// HoldsPartner reports whether a QSO in this state carries a reference to its
// matched counterpart. Dupe, NIL, OutsideContest, Removed and Bye never do.
func (s MatchState) HoldsPartner() bool {
	switch s {
	case MatchFull, MatchPartial, MatchTimeShiftFull, MatchTimeShiftPartial:
		return true
	}
	return false
}

// Terminal reports whether the state can still change. None is the initial
// state, the TimeShift states resolve to Full/Partial, and Full/Bye can be
// demoted to Dupe by the final duplicate sweep. Everything else is final.
func (s MatchState) Terminal() bool {
	switch s {
	case MatchNone, MatchTimeShiftFull, MatchTimeShiftPartial, MatchFull, MatchBye:
		return false
	}
	return true
}

// CanTransition reports whether moving from s to next follows the state machine.
func (s MatchState) CanTransition(next MatchState) bool {
	if s == next {
		return false
	}
	switch s {
	case MatchNone:
		return next != MatchNone
	case MatchTimeShiftFull:
		// Resolves to Full when mutually confirmed, Partial on the sweep.
		return next == MatchFull || next == MatchPartial
	case MatchTimeShiftPartial:
		return next == MatchPartial
	case MatchFull, MatchBye:
		return next == MatchDupe
	}
	return false
}
