package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"qsomatch/pkg/compare"
	"qsomatch/pkg/models"

	"github.com/uptrace/bun"
)

// InsertQSO stores one claimed contact.
func (db *DB) InsertQSO(ctx context.Context, qso *models.QSO) error {
	_, err := db.NewInsert().
		Model(qso).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error inserting QSO: %v", err)
	}
	return nil
}

// errClaimConflict aborts the claim transaction when a conditional update
// misses; it never escapes ClaimPair.
var errClaimConflict = errors.New("qso already claimed")

// ClaimPair links two QSOs under the bilateral claim protocol: each side is
// conditionally updated only while still unmatched, inside one transaction.
// If either update misses (a concurrent pass claimed the row first) the
// whole transaction rolls back and ClaimPair reports false with no error.
func (db *DB) ClaimPair(ctx context.Context, id1, id2 int64, state1, state2 models.MatchState) (bool, error) {
	err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, side := range []struct {
			id, matchID int64
			state       models.MatchState
		}{
			{id1, id2, state1},
			{id2, id1, state2},
		} {
			res, err := tx.NewUpdate().
				Model((*models.QSO)(nil)).
				Set("match_id = ?", side.matchID).
				Set("match_state = ?", side.state).
				Where("id = ?", side.id).
				Where("match_id IS NULL").
				Where("match_state = ?", models.MatchNone).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("error claiming QSO %d: %v", side.id, err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("error reading claim result: %v", err)
			}
			if affected != 1 {
				return errClaimConflict
			}
		}
		return nil
	})
	if errors.Is(err, errClaimConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkDupeUnmatched marks whichever of the two QSOs is still unmatched as a
// duplicate; used when a candidate pair loses its claim to an earlier link.
func (db *DB) MarkDupeUnmatched(ctx context.Context, id1, id2 int64) error {
	_, err := db.NewUpdate().
		Model((*models.QSO)(nil)).
		Set("match_state = ?", models.MatchDupe).
		Where("id IN (?)", bun.In([]int64{id1, id2})).
		Where("match_id IS NULL").
		Where("match_state = ?", models.MatchNone).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error marking dupe pair: %v", err)
	}
	return nil
}

// SetStateIfNone moves a single unmatched QSO to a partnerless terminal
// state, recording a disposition comment. Returns whether the row moved.
func (db *DB) SetStateIfNone(ctx context.Context, id int64, state models.MatchState, comment string) (bool, error) {
	q := db.NewUpdate().
		Model((*models.QSO)(nil)).
		Set("match_state = ?", state).
		Where("id = ?", id).
		Where("match_id IS NULL").
		Where("match_state = ?", models.MatchNone)
	if comment != "" {
		q = q.Set("comment = ?", comment)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("error setting QSO %d to %s: %v", id, state, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// SetState updates a QSO's state unconditionally; used by the time-shift
// resolution pass where the provisional state is already known.
func (db *DB) SetState(ctx context.Context, id int64, state models.MatchState) error {
	_, err := db.NewUpdate().
		Model((*models.QSO)(nil)).
		Set("match_state = ?", state).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error setting QSO %d to %s: %v", id, state, err)
	}
	return nil
}

// DemoteToDupe clears the partner link and marks the QSO a duplicate; used
// by the final dedup sweep on rows already resolved Full or Bye.
func (db *DB) DemoteToDupe(ctx context.Context, id int64) (bool, error) {
	res, err := db.NewUpdate().
		Model((*models.QSO)(nil)).
		Set("match_state = ?", models.MatchDupe).
		Set("match_id = NULL").
		Where("id = ?", id).
		Where("match_state IN (?)", bun.In([]models.MatchState{models.MatchFull, models.MatchBye})).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("error demoting QSO %d to dupe: %v", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Restart rewinds the contest's QSOs to the ingested-but-unmatched state:
// match links, states, disposition comments and the per-log derived fields
// are all cleared in one transaction.
func (db *DB) Restart(ctx context.Context, contestID int64, logIDs []int64) error {
	if len(logIDs) == 0 {
		return nil
	}
	return db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.QSO)(nil)).
			Set("match_id = NULL").
			Set("match_state = ?", models.MatchNone).
			Set("comment = ''").
			Where("log_id IN (?)", bun.In(logIDs)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("error resetting QSOs: %v", err)
		}
		_, err = tx.NewUpdate().
			Model((*models.Log)(nil)).
			Set("clock_adj = 0").
			Set("verified_score = NULL").
			Set("verified_qsos = NULL").
			Set("verified_mults = NULL").
			Where("id IN (?)", bun.In(logIDs)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("error resetting logs: %v", err)
		}
		return nil
	})
}

type flatQSO struct {
	ID       int64     `bun:"id"`
	LogID    int64     `bun:"log_id"`
	Band     string    `bun:"band"`
	Mode     string    `bun:"mode"`
	Time     time.Time `bun:"time"`
	ClockAdj int       `bun:"clock_adj"`

	SentCallID   int64  `bun:"sent_call_id"`
	SentCall     string `bun:"sent_call"`
	SentRaw      string `bun:"sent_callsign"`
	SentMultID   int64  `bun:"sent_mult_id"`
	SentMult     string `bun:"sent_mult"`
	SentSerial   int    `bun:"sent_serial"`
	SentName     string `bun:"sent_name"`
	SentLocation string `bun:"sent_location"`

	RecvdCallID   int64  `bun:"recvd_call_id"`
	RecvdCall     string `bun:"recvd_call"`
	RecvdRaw      string `bun:"recvd_callsign"`
	RecvdMultID   int64  `bun:"recvd_mult_id"`
	RecvdMult     string `bun:"recvd_mult"`
	RecvdSerial   int    `bun:"recvd_serial"`
	RecvdName     string `bun:"recvd_name"`
	RecvdLocation string `bun:"recvd_location"`
}

// UnmatchedQSOs returns a flat comparison view of every QSO still in state
// None within the log scope, references resolved to text and timestamps
// corrected by each log's clock adjustment.
func (db *DB) UnmatchedQSOs(ctx context.Context, logIDs []int64) ([]compare.QSO, error) {
	if len(logIDs) == 0 {
		return nil, nil
	}
	var rows []flatQSO
	err := db.NewSelect().
		ColumnExpr("q.id, q.log_id, q.band, q.mode, q.time, l.clock_adj").
		ColumnExpr("q.sent_call_id, cs.base_call AS sent_call, q.sent_callsign, q.sent_mult_id, coalesce(ms.abbrev, '') AS sent_mult, coalesce(q.sent_serial, 0) AS sent_serial, q.sent_name, q.sent_location").
		ColumnExpr("q.recvd_call_id, cr.base_call AS recvd_call, q.recvd_callsign, q.recvd_mult_id, coalesce(mr.abbrev, '') AS recvd_mult, coalesce(q.recvd_serial, 0) AS recvd_serial, q.recvd_name, q.recvd_location").
		TableExpr("qsos AS q").
		Join("JOIN logs AS l ON l.id = q.log_id").
		Join("JOIN callsigns AS cs ON cs.id = q.sent_call_id").
		Join("JOIN callsigns AS cr ON cr.id = q.recvd_call_id").
		Join("LEFT JOIN multipliers AS ms ON ms.id = q.sent_mult_id").
		Join("LEFT JOIN multipliers AS mr ON mr.id = q.recvd_mult_id").
		Where("q.match_id IS NULL").
		Where("q.match_state = ?", models.MatchNone).
		Where("q.log_id IN (?)", bun.In(logIDs)).
		OrderExpr("q.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("error reading unmatched QSOs: %v", err)
	}

	qsos := make([]compare.QSO, 0, len(rows))
	for _, r := range rows {
		qsos = append(qsos, compare.QSO{
			ID:    r.ID,
			LogID: r.LogID,
			Band:  r.Band,
			Mode:  r.Mode,
			Time:  r.Time.Add(time.Duration(r.ClockAdj) * time.Second),
			Sent: compare.Exchange{
				CallID: r.SentCallID, Call: r.SentCall, RawCall: r.SentRaw,
				MultID: r.SentMultID, Mult: r.SentMult, Serial: r.SentSerial,
				Name: r.SentName, Location: r.SentLocation,
			},
			Recvd: compare.Exchange{
				CallID: r.RecvdCallID, Call: r.RecvdCall, RawCall: r.RecvdRaw,
				MultID: r.RecvdMultID, Mult: r.RecvdMult, Serial: r.RecvdSerial,
				Name: r.RecvdName, Location: r.RecvdLocation,
			},
		})
	}
	return qsos, nil
}
