package crossmatch

import (
	"context"
	"fmt"
	"log/slog"

	"qsomatch/pkg/adjudicate"
	"qsomatch/pkg/database"
	"qsomatch/pkg/models"

	"github.com/google/uuid"
)

// Matcher drives the cross-match phases for one contest. It is built once
// per run and holds the contest scope; nothing else writes the contest's
// QSOs while it runs.
type Matcher struct {
	db        *database.DB
	logger    *slog.Logger
	cfg       Config
	decider   adjudicate.Decider
	contestID int64
	logIDs    []int64
}

// New validates the configuration and loads the contest's log scope. An
// empty scope or an invalid configuration is fatal before any state is
// touched.
func New(ctx context.Context, db *database.DB, contestID int64, cfg Config, logger *slog.Logger, decider adjudicate.Decider) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid match configuration: %v", err)
	}
	logIDs, err := db.LogsForContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if len(logIDs) == 0 {
		return nil, fmt.Errorf("contest %d has no logs to match", contestID)
	}
	if decider == nil {
		decider = adjudicate.RejectDecider{}
	}
	return &Matcher{
		db:        db,
		logger:    logger.With("run", uuid.New().String(), "contestID", contestID),
		cfg:       cfg,
		decider:   decider,
		contestID: contestID,
		logIDs:    logIDs,
	}, nil
}

// Restart rewinds the contest to the ingested-but-unmatched state: all
// match links and states cleared, clock adjustments and verified totals
// reset.
func (m *Matcher) Restart(ctx context.Context) error {
	m.logger.Info("Restarting match state", "logs", len(m.logIDs))
	return m.db.Restart(ctx, m.contestID, m.logIDs)
}

// linkPairs attempts the bilateral claim on each candidate pair in order.
// A pair that loses its claim (either side taken by an earlier candidate)
// has its leftover unmatched side marked Dupe, matching the repeat-claim
// treatment the candidate queries cannot see yet.
func (m *Matcher) linkPairs(ctx context.Context, pairs []database.IDPair, state1, state2 models.MatchState) (int, error) {
	linked := 0
	for _, pair := range pairs {
		claimed, err := m.db.ClaimPair(ctx, pair.ID1, pair.ID2, state1, state2)
		if err != nil {
			return linked, err
		}
		if claimed {
			linked++
			continue
		}
		if err := m.db.MarkDupeUnmatched(ctx, pair.ID1, pair.ID2); err != nil {
			return linked, err
		}
	}
	return linked, nil
}

// PerfectMatch links pairs whose exchanges corroborate exactly in both
// directions, committing both sides as Full. Returns the number of links.
func (m *Matcher) PerfectMatch(ctx context.Context, tolerance int, strict bool) (int, error) {
	m.logger.Debug("Starting perfect match", "tolerance", tolerance, "strict", strict)
	pairs, err := m.db.PerfectCandidates(ctx, m.logIDs, tolerance, strict)
	if err != nil {
		return 0, err
	}
	linked, err := m.linkPairs(ctx, pairs, models.MatchFull, models.MatchFull)
	if err != nil {
		return linked, err
	}
	m.logger.Info("Perfect match complete", "candidates", len(pairs), "linked", linked, "strict", strict)
	return linked, nil
}

// PartialMatch links pairs where only one direction corroborates exactly:
// the corroborated side commits as Full, the other as Partial.
func (m *Matcher) PartialMatch(ctx context.Context, tolerance int, strict bool) (int, error) {
	m.logger.Debug("Starting partial match", "tolerance", tolerance, "strict", strict)
	pairs, err := m.db.PartialCandidates(ctx, m.logIDs, tolerance, strict)
	if err != nil {
		return 0, err
	}
	linked, err := m.linkPairs(ctx, pairs, models.MatchFull, models.MatchPartial)
	if err != nil {
		return linked, err
	}
	m.logger.Info("Partial match complete", "candidates", len(pairs), "linked", linked, "strict", strict)
	return linked, nil
}

// BasicMatch links leftover pairs connected only by callsign references
// in both directions; both sides commit as Partial.
func (m *Matcher) BasicMatch(ctx context.Context, tolerance int, strict bool) (int, error) {
	m.logger.Debug("Starting basic match", "tolerance", tolerance, "strict", strict)
	pairs, err := m.db.BasicCandidates(ctx, m.logIDs, tolerance, strict)
	if err != nil {
		return 0, err
	}
	linked, err := m.linkPairs(ctx, pairs, models.MatchPartial, models.MatchPartial)
	if err != nil {
		return linked, err
	}
	m.logger.Info("Basic match complete", "candidates", len(pairs), "linked", linked, "strict", strict)
	return linked, nil
}

// resolveShiftState maps a provisional time-shift state to its settled
// form once the pair is confirmed within tolerance.
func resolveShiftState(s models.MatchState) models.MatchState {
	if s == models.MatchTimeShiftFull {
		return models.MatchFull
	}
	return models.MatchPartial
}

// ResolveShifted settles every mutually-linked pair in the provisional
// TimeShift states: pairs within the standard tolerance (clock adjustments
// applied) resolve each side to Full or Partial according to its flag; any
// QSO left in a TimeShift state afterwards is swept to Partial. Returns the
// Full and Partial counts.
func (m *Matcher) ResolveShifted(ctx context.Context) (int, int, error) {
	pairs, err := m.db.ShiftedPairs(ctx, m.contestID, m.cfg.Tolerance)
	if err != nil {
		return 0, 0, err
	}
	full, partial := 0, 0
	for _, pair := range pairs {
		for _, side := range []struct {
			id    int64
			state models.MatchState
		}{
			{pair.ID1, pair.State1},
			{pair.ID2, pair.State2},
		} {
			resolved := resolveShiftState(side.state)
			if err := m.db.SetState(ctx, side.id, resolved); err != nil {
				return full, partial, err
			}
			if resolved == models.MatchFull {
				full++
			} else {
				partial++
			}
		}
	}
	swept, err := m.db.SweepShiftedToPartial(ctx, m.logIDs)
	if err != nil {
		return full, partial, err
	}
	partial += swept
	m.logger.Info("Time-shift resolution complete", "full", full, "partial", partial, "swept", swept)
	return full, partial, nil
}

// IgnoreDupes marks unmatched repeat claims of already-linked contacts as
// Dupe and returns the count.
func (m *Matcher) IgnoreDupes(ctx context.Context) (int, error) {
	ids, err := m.db.RepeatClaims(ctx, m.logIDs)
	if err != nil {
		return 0, err
	}
	count, err := m.db.MarkDupeIDs(ctx, ids)
	if err != nil {
		return count, err
	}
	m.logger.Info("Duplicate suppression complete", "dupes", count)
	return count, nil
}

// MarkNIL marks unmatched claims against stations that submitted their own
// log as NIL, the not-in-log penalty state. Returns the count.
func (m *Matcher) MarkNIL(ctx context.Context) (int, error) {
	ids, err := m.db.NILCandidates(ctx, m.logIDs)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, id := range ids {
		moved, err := m.db.SetStateIfNone(ctx, id, models.MatchNIL, "")
		if err != nil {
			return count, err
		}
		if moved {
			count++
		}
	}
	m.logger.Info("NIL marking complete", "nil", count)
	return count, nil
}

// Totals summarizes one full engine run.
type Totals struct {
	Perfect      int
	Partial      int
	Basic        int
	ShiftFull    int
	ShiftPartial int
	Dupes        int
	NIL          int
	Probability  int
}

// Run executes the full phase sequence: each exact phase strict then
// relaxed, time-shift resolution, duplicate suppression, NIL marking, and
// the probabilistic fallback.
func (m *Matcher) Run(ctx context.Context) (Totals, error) {
	var totals Totals

	for _, strict := range []bool{true, false} {
		n, err := m.PerfectMatch(ctx, m.cfg.Tolerance, strict)
		if err != nil {
			return totals, err
		}
		totals.Perfect += n
	}
	for _, strict := range []bool{true, false} {
		n, err := m.PartialMatch(ctx, m.cfg.Tolerance, strict)
		if err != nil {
			return totals, err
		}
		totals.Partial += n
	}
	for _, strict := range []bool{true, false} {
		n, err := m.BasicMatch(ctx, m.cfg.Tolerance, strict)
		if err != nil {
			return totals, err
		}
		totals.Basic += n
	}

	full, partial, err := m.ResolveShifted(ctx)
	if err != nil {
		return totals, err
	}
	totals.ShiftFull = full
	totals.ShiftPartial = partial

	if totals.Dupes, err = m.IgnoreDupes(ctx); err != nil {
		return totals, err
	}
	if totals.NIL, err = m.MarkNIL(ctx); err != nil {
		return totals, err
	}
	if totals.Probability, err = m.ProbMatch(ctx); err != nil {
		return totals, err
	}
	return totals, nil
}
