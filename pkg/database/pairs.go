package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"qsomatch/pkg/models"
)

// LookupPair consults the adjudication cache for a prior decision on the
// pair, in either line order. found is false when the pair was never
// adjudicated.
func (db *DB) LookupPair(ctx context.Context, line1, line2 string) (isMatch, found bool, err error) {
	var pair models.Pair
	err = db.NewSelect().
		Model(&pair).
		Where("(line1 = ? AND line2 = ?) OR (line1 = ? AND line2 = ?)",
			line1, line2, line2, line1).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("error looking up pair: %v", err)
	}
	return pair.IsMatch, true, nil
}

// RecordPair persists an adjudicated decision so the pair is never asked
// about again.
func (db *DB) RecordPair(ctx context.Context, contestID int64, line1, line2 string, isMatch bool) error {
	pair := models.Pair{
		ContestID: contestID,
		Line1:     line1,
		Line2:     line2,
		IsMatch:   isMatch,
	}
	_, err := db.NewInsert().
		Model(&pair).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error recording pair: %v", err)
	}
	return nil
}
