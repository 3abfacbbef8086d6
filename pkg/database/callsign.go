package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"qsomatch/pkg/models"
)

// AddOrLookupCall resolves a base callsign to its Callsign row for the
// contest, creating the row on first reference. Results are cached for the
// life of the DB handle; ingestion is single-writer so the cache is safe.
func (db *DB) AddOrLookupCall(ctx context.Context, contestID int64, baseCall string, valid bool) (int64, error) {
	baseCall = strings.ToUpper(baseCall)
	cacheKey := fmt.Sprintf("%d/%s", contestID, baseCall)
	if id, ok := db.callCache[cacheKey]; ok {
		return id, nil
	}

	var call models.Callsign
	err := db.NewSelect().
		Model(&call).
		Where("contest_id = ?", contestID).
		Where("base_call = ?", baseCall).
		Limit(1).
		Scan(ctx)
	if err == nil {
		db.callCache[cacheKey] = call.ID
		return call.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("error looking up callsign: %v", err)
	}

	call = models.Callsign{ContestID: contestID, BaseCall: baseCall, ValidCall: valid}
	_, err = db.NewInsert().
		Model(&call).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("error inserting callsign: %v", err)
	}
	db.callCache[cacheKey] = call.ID
	return call.ID, nil
}

// MarkLogReceived flags a callsign as having submitted its own log, which
// later makes a missing corroborating record meaningful (NIL instead of Bye).
func (db *DB) MarkLogReceived(ctx context.Context, callID int64) error {
	_, err := db.NewUpdate().
		Model((*models.Callsign)(nil)).
		Set("log_recvd = ?", true).
		Where("id = ?", callID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error marking log received: %v", err)
	}
	return nil
}

// CallsignStat is one row of the contest-wide callsign census: the callsign
// plus how many QSOs across all logs claim to have worked it.
type CallsignStat struct {
	ID       int64  `bun:"id"`
	BaseCall string `bun:"base_call"`
	Valid    bool   `bun:"valid_call"`
	HaveLog  bool   `bun:"log_recvd"`
	NumQSOs  int    `bun:"num"`
}

// CallsignCensus returns aggregate stats for every callsign referenced as a
// contact by at least one QSO in the contest.
func (db *DB) CallsignCensus(ctx context.Context, contestID int64) ([]CallsignStat, error) {
	var stats []CallsignStat
	err := db.NewSelect().
		ColumnExpr("cs.id, cs.base_call, cs.valid_call, cs.log_recvd, count(*) AS num").
		TableExpr("callsigns AS cs").
		Join("JOIN qsos AS q ON q.recvd_call_id = cs.id").
		Where("cs.contest_id = ?", contestID).
		GroupExpr("cs.id, cs.base_call, cs.valid_call, cs.log_recvd").
		OrderExpr("cs.base_call ASC").
		Scan(ctx, &stats)
	if err != nil {
		return nil, fmt.Errorf("error querying callsign census: %v", err)
	}
	return stats, nil
}

// AddOrLookupMultiplier resolves a multiplier abbreviation, creating it on
// first reference.
func (db *DB) AddOrLookupMultiplier(ctx context.Context, abbrev string) (int64, error) {
	abbrev = strings.ToUpper(strings.TrimSpace(abbrev))
	if abbrev == "" {
		return 0, nil
	}
	if id, ok := db.multCache[abbrev]; ok {
		return id, nil
	}

	var mult models.Multiplier
	err := db.NewSelect().
		Model(&mult).
		Where("abbrev = ?", abbrev).
		Limit(1).
		Scan(ctx)
	if err == nil {
		db.multCache[abbrev] = mult.ID
		return mult.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("error looking up multiplier: %v", err)
	}

	mult = models.Multiplier{Abbrev: abbrev}
	_, err = db.NewInsert().
		Model(&mult).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("error inserting multiplier: %v", err)
	}
	db.multCache[abbrev] = mult.ID
	return mult.ID, nil
}
