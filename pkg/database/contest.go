package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"qsomatch/pkg/models"

	"github.com/uptrace/bun"
)

// AddOrLookupContest finds the contest by name and year, creating it when
// create is set. Returns 0 when the contest doesn't exist and create is false.
func (db *DB) AddOrLookupContest(ctx context.Context, name string, year int, create bool) (int64, error) {
	var contest models.Contest
	err := db.NewSelect().
		Model(&contest).
		Where("name = ?", name).
		Where("year = ?", year).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return contest.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("error looking up contest: %v", err)
	}
	if !create {
		return 0, nil
	}

	contest = models.Contest{Name: name, Year: year}
	_, err = db.NewInsert().
		Model(&contest).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("error creating contest: %v", err)
	}
	return contest.ID, nil
}

// LogsForContest returns the IDs of every log submitted for the contest, in
// ascending order. This is the matching scope for one engine run.
func (db *DB) LogsForContest(ctx context.Context, contestID int64) ([]int64, error) {
	var ids []int64
	err := db.NewSelect().
		Model((*models.Log)(nil)).
		Column("id").
		Where("contest_id = ?", contestID).
		Order("id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("error getting logs for contest: %v", err)
	}
	return ids, nil
}

// RemoveContestQSOs deletes the contest's QSOs, logs and callsigns, leaving
// the contest row itself so logs can be re-ingested.
func (db *DB) RemoveContestQSOs(ctx context.Context, contestID int64) error {
	logs, err := db.LogsForContest(ctx, contestID)
	if err != nil {
		return err
	}
	if len(logs) > 0 {
		_, err = db.NewDelete().
			Model((*models.QSO)(nil)).
			Where("log_id IN (?)", bun.In(logs)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("error removing QSOs: %v", err)
		}
	}
	_, err = db.NewDelete().
		Model((*models.Log)(nil)).
		Where("contest_id = ?", contestID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error removing logs: %v", err)
	}
	_, err = db.NewDelete().
		Model((*models.Callsign)(nil)).
		Where("contest_id = ?", contestID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error removing callsigns: %v", err)
	}
	db.callCache = make(map[string]int64)
	return nil
}

// RemoveWholeContest destroys the contest entirely: QSOs, logs, callsigns,
// adjudicated pairs and the contest row.
func (db *DB) RemoveWholeContest(ctx context.Context, contestID int64) error {
	if err := db.RemoveContestQSOs(ctx, contestID); err != nil {
		return err
	}
	_, err := db.NewDelete().
		Model((*models.Pair)(nil)).
		Where("contest_id = ?", contestID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error removing pairs: %v", err)
	}
	_, err = db.NewDelete().
		Model((*models.Contest)(nil)).
		Where("id = ?", contestID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error removing contest: %v", err)
	}
	return nil
}
