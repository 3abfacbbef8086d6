package database

import (
	"context"
	"fmt"

	"qsomatch/pkg/models"

	"github.com/uptrace/bun"
)

// adjTimeDiff is the absolute time difference of a candidate pair in
// seconds, with both logs' clock adjustments applied.
const adjTimeDiff = "abs(extract(epoch from (q1.time - q2.time)) + (l1.clock_adj - l2.clock_adj))"

// serialDeviation orders exact-phase candidates: combined distance between
// what each side sent and what the other copied.
const serialDeviation = "(abs(q1.recvd_serial - q2.sent_serial) + abs(q2.recvd_serial - q1.sent_serial))"

func bandModePred(strict bool) string {
	if strict {
		return "q1.band = q2.band AND q1.mode = q2.mode"
	}
	return "(q1.band = q2.band OR q1.mode = q2.mode)"
}

// IDPair is a candidate pair in phase order; ID1 is the side whose received
// exchange was verified.
type IDPair struct {
	ID1 int64 `bun:"id1"`
	ID2 int64 `bun:"id2"`
}

// PerfectCandidates returns unmatched cross-log pairs whose exchanges
// corroborate each other exactly in both directions (callsign and
// multiplier references equal, serials within one, time within tolerance),
// ordered by ascending serial deviation then ascending time deviation.
func (db *DB) PerfectCandidates(ctx context.Context, logIDs []int64, tolerance int, strict bool) ([]IDPair, error) {
	if len(logIDs) == 0 {
		return nil, nil
	}
	var pairs []IDPair
	err := db.NewSelect().
		ColumnExpr("q1.id AS id1, q2.id AS id2").
		TableExpr("qsos AS q1").
		Join("JOIN qsos AS q2 ON q1.recvd_call_id = q2.sent_call_id"+
			" AND q1.recvd_mult_id = q2.sent_mult_id"+
			" AND q2.recvd_call_id = q1.sent_call_id"+
			" AND q2.recvd_mult_id = q1.sent_mult_id"+
			" AND "+bandModePred(strict)).
		Join("JOIN logs AS l1 ON l1.id = q1.log_id").
		Join("JOIN logs AS l2 ON l2.id = q2.log_id").
		Where("q1.log_id IN (?)", bun.In(logIDs)).
		Where("q2.log_id IN (?)", bun.In(logIDs)).
		Where("q1.log_id != q2.log_id").
		Where("q1.id < q2.id").
		Where("q1.recvd_serial BETWEEN q2.sent_serial - 1 AND q2.sent_serial + 1").
		Where("q2.recvd_serial BETWEEN q1.sent_serial - 1 AND q1.sent_serial + 1").
		Where("q1.match_id IS NULL AND q1.match_state = ?", models.MatchNone).
		Where("q2.match_id IS NULL AND q2.match_state = ?", models.MatchNone).
		Where(adjTimeDiff+" <= ?", tolerance*60).
		OrderExpr(serialDeviation + " ASC").
		OrderExpr(adjTimeDiff + " ASC").
		Scan(ctx, &pairs)
	if err != nil {
		return nil, fmt.Errorf("error querying perfect candidates: %v", err)
	}
	return pairs, nil
}

// PartialCandidates returns unmatched cross-log pairs where only q1's
// received exchange is required to match q2's sent exchange exactly, while
// q2's received side resolves to q1's callsign. q1 is the corroborated side.
func (db *DB) PartialCandidates(ctx context.Context, logIDs []int64, tolerance int, strict bool) ([]IDPair, error) {
	if len(logIDs) == 0 {
		return nil, nil
	}
	var pairs []IDPair
	err := db.NewSelect().
		ColumnExpr("q1.id AS id1, q2.id AS id2").
		TableExpr("qsos AS q1").
		Join("JOIN qsos AS q2 ON q1.recvd_call_id = q2.sent_call_id"+
			" AND q1.recvd_mult_id = q2.sent_mult_id"+
			" AND q2.recvd_call_id = q1.sent_call_id"+
			" AND "+bandModePred(strict)).
		Join("JOIN logs AS l1 ON l1.id = q1.log_id").
		Join("JOIN logs AS l2 ON l2.id = q2.log_id").
		Where("q1.log_id IN (?)", bun.In(logIDs)).
		Where("q2.log_id IN (?)", bun.In(logIDs)).
		Where("q1.log_id != q2.log_id").
		Where("q1.recvd_serial BETWEEN q2.sent_serial - 1 AND q2.sent_serial + 1").
		Where("q1.match_id IS NULL AND q1.match_state = ?", models.MatchNone).
		Where("q2.match_id IS NULL AND q2.match_state = ?", models.MatchNone).
		Where(adjTimeDiff+" <= ?", tolerance*60).
		OrderExpr(serialDeviation + " ASC").
		OrderExpr(adjTimeDiff + " ASC").
		Scan(ctx, &pairs)
	if err != nil {
		return nil, fmt.Errorf("error querying partial candidates: %v", err)
	}
	return pairs, nil
}

// BasicCandidates returns unmatched cross-log pairs linked only by the
// callsign references in both directions, bypassing the multiplier check.
func (db *DB) BasicCandidates(ctx context.Context, logIDs []int64, tolerance int, strict bool) ([]IDPair, error) {
	if len(logIDs) == 0 {
		return nil, nil
	}
	var pairs []IDPair
	err := db.NewSelect().
		ColumnExpr("q1.id AS id1, q2.id AS id2").
		TableExpr("qsos AS q1").
		Join("JOIN qsos AS q2 ON q1.sent_call_id = q2.recvd_call_id"+
			" AND q2.sent_call_id = q1.recvd_call_id"+
			" AND "+bandModePred(strict)).
		Join("JOIN logs AS l1 ON l1.id = q1.log_id").
		Join("JOIN logs AS l2 ON l2.id = q2.log_id").
		Where("q1.log_id IN (?)", bun.In(logIDs)).
		Where("q2.log_id IN (?)", bun.In(logIDs)).
		Where("q1.log_id < q2.log_id").
		Where("q1.match_id IS NULL AND q1.match_state = ?", models.MatchNone).
		Where("q2.match_id IS NULL AND q2.match_state = ?", models.MatchNone).
		Where(adjTimeDiff+" <= ?", tolerance*60).
		OrderExpr(adjTimeDiff + " ASC").
		OrderExpr(serialDeviation + " ASC").
		Scan(ctx, &pairs)
	if err != nil {
		return nil, fmt.Errorf("error querying basic candidates: %v", err)
	}
	return pairs, nil
}

// ShiftedPair is a mutually-linked pair still holding provisional
// time-shift states.
type ShiftedPair struct {
	ID1    int64             `bun:"id1"`
	State1 models.MatchState `bun:"state1"`
	ID2    int64             `bun:"id2"`
	State2 models.MatchState `bun:"state2"`
}

var shiftStates = []models.MatchState{models.MatchTimeShiftFull, models.MatchTimeShiftPartial}

// ShiftedPairs returns every mutually-linked pair in the time-shift states
// whose timestamps fall within tolerance once clock adjustments apply.
func (db *DB) ShiftedPairs(ctx context.Context, contestID int64, tolerance int) ([]ShiftedPair, error) {
	var pairs []ShiftedPair
	err := db.NewSelect().
		ColumnExpr("q1.id AS id1, q1.match_state AS state1, q2.id AS id2, q2.match_state AS state2").
		TableExpr("qsos AS q1").
		Join("JOIN qsos AS q2 ON q1.match_id = q2.id AND q2.match_id = q1.id").
		Join("JOIN logs AS l1 ON l1.id = q1.log_id").
		Join("JOIN logs AS l2 ON l2.id = q2.log_id").
		Where("q1.match_state IN (?)", bun.In(shiftStates)).
		Where("q2.match_state IN (?)", bun.In(shiftStates)).
		Where("q1.id < q2.id").
		Where("l1.contest_id = ?", contestID).
		Where("l2.contest_id = ?", contestID).
		Where(adjTimeDiff+" <= ?", tolerance*60).
		OrderExpr("q1.id ASC").
		Scan(ctx, &pairs)
	if err != nil {
		return nil, fmt.Errorf("error querying shifted pairs: %v", err)
	}
	return pairs, nil
}

// SweepShiftedToPartial downgrades every QSO left in a time-shift state to
// Partial and returns how many rows moved.
func (db *DB) SweepShiftedToPartial(ctx context.Context, logIDs []int64) (int, error) {
	if len(logIDs) == 0 {
		return 0, nil
	}
	res, err := db.NewUpdate().
		Model((*models.QSO)(nil)).
		Set("match_state = ?", models.MatchPartial).
		Where("match_state IN (?)", bun.In(shiftStates)).
		Where("log_id IN (?)", bun.In(logIDs)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("error sweeping shifted QSOs: %v", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// RepeatClaims finds unmatched QSOs that repeat an already-linked contact:
// a third QSO in the same log and band as q1 naming the station q1 is
// already linked to.
func (db *DB) RepeatClaims(ctx context.Context, logIDs []int64) ([]int64, error) {
	if len(logIDs) == 0 {
		return nil, nil
	}
	linked := []models.MatchState{models.MatchFull, models.MatchPartial}
	var ids []int64
	err := db.NewSelect().
		ColumnExpr("DISTINCT q3.id").
		TableExpr("qsos AS q1").
		Join("JOIN qsos AS q2 ON q2.id = q1.match_id AND q2.match_id IS NOT NULL").
		Join("JOIN qsos AS q3 ON q3.log_id = q1.log_id AND q3.band = q1.band").
		Where("q1.match_id IS NOT NULL").
		Where("q1.match_state IN (?)", bun.In(linked)).
		Where("q2.match_state IN (?)", bun.In(linked)).
		Where("q1.log_id IN (?)", bun.In(logIDs)).
		Where("q2.log_id IN (?)", bun.In(logIDs)).
		Where("q1.band = q2.band").
		Where("q3.match_id IS NULL AND q3.match_state = ?", models.MatchNone).
		Where("q2.sent_call_id = q3.recvd_call_id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("error querying repeat claims: %v", err)
	}
	return ids, nil
}

// MarkDupeIDs marks the given QSOs Dupe if still unmatched, returning the
// number of rows moved.
func (db *DB) MarkDupeIDs(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := db.NewUpdate().
		Model((*models.QSO)(nil)).
		Set("match_state = ?", models.MatchDupe).
		Where("id IN (?)", bun.In(ids)).
		Where("match_id IS NULL").
		Where("match_state = ?", models.MatchNone).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("error marking dupes: %v", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// NILCandidates returns unmatched QSOs whose received callsign belongs to a
// station that submitted its own log, so the missing corroboration is
// meaningful.
func (db *DB) NILCandidates(ctx context.Context, logIDs []int64) ([]int64, error) {
	if len(logIDs) == 0 {
		return nil, nil
	}
	var ids []int64
	err := db.NewSelect().
		ColumnExpr("q.id").
		TableExpr("qsos AS q").
		Join("JOIN callsigns AS c ON c.id = q.recvd_call_id").
		Where("q.match_id IS NULL AND q.match_state = ?", models.MatchNone).
		Where("q.log_id IN (?)", bun.In(logIDs)).
		Where("c.log_recvd").
		OrderExpr("q.id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("error querying NIL candidates: %v", err)
	}
	return ids, nil
}

// FinalDupePairs returns pairs of QSOs in the same log and band, both
// resolved Full or Bye, that name the same received callsign. The
// second (later) member of each pair is the duplicate.
func (db *DB) FinalDupePairs(ctx context.Context, logIDs []int64) ([]IDPair, error) {
	if len(logIDs) == 0 {
		return nil, nil
	}
	kept := []models.MatchState{models.MatchFull, models.MatchBye}
	var pairs []IDPair
	err := db.NewSelect().
		ColumnExpr("q1.id AS id1, q2.id AS id2").
		TableExpr("qsos AS q1").
		Join("JOIN qsos AS q2 ON q2.log_id = q1.log_id AND q2.band = q1.band"+
			" AND q2.recvd_call_id = q1.recvd_call_id AND q1.id < q2.id").
		Where("q1.log_id IN (?)", bun.In(logIDs)).
		Where("q1.match_state IN (?)", bun.In(kept)).
		Where("q2.match_state IN (?)", bun.In(kept)).
		OrderExpr("q1.id ASC").
		Scan(ctx, &pairs)
	if err != nil {
		return nil, fmt.Errorf("error querying final dupe pairs: %v", err)
	}
	return pairs, nil
}
