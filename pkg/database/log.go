package database

import (
	"context"
	"fmt"

	"qsomatch/pkg/models"
)

// InsertLog stores one submission header and returns its ID.
func (db *DB) InsertLog(ctx context.Context, log *models.Log) (int64, error) {
	_, err := db.NewInsert().
		Model(log).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("error inserting log: %v", err)
	}
	return log.ID, nil
}

// ClockAdjustment returns the log's clock correction in seconds.
func (db *DB) ClockAdjustment(ctx context.Context, logID int64) (int, error) {
	var adj int
	err := db.NewSelect().
		Model((*models.Log)(nil)).
		Column("clock_adj").
		Where("id = ?", logID).
		Limit(1).
		Scan(ctx, &adj)
	if err != nil {
		return 0, fmt.Errorf("error getting clock adjustment: %v", err)
	}
	return adj, nil
}
