package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"qsomatch/pkg/models"

	"github.com/uptrace/bun"
)

// IncompleteExchanges returns unmatched QSOs whose received exchange is
// structurally incomplete: missing multiplier, serial, or name.
func (db *DB) IncompleteExchanges(ctx context.Context, logIDs []int64) ([]int64, error) {
	if len(logIDs) == 0 {
		return nil, nil
	}
	var ids []int64
	err := db.NewSelect().
		ColumnExpr("q.id").
		TableExpr("qsos AS q").
		Where("q.match_id IS NULL AND q.match_state = ?", models.MatchNone).
		Where("q.log_id IN (?)", bun.In(logIDs)).
		Where("(q.recvd_mult_id IS NULL OR q.recvd_serial IS NULL OR coalesce(q.recvd_name, '') = '')").
		OrderExpr("q.id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("error querying incomplete exchanges: %v", err)
	}
	return ids, nil
}

// UnmatchedContact is one QSO still unresolved after the engine phases,
// with the callsign it claims to have worked.
type UnmatchedContact struct {
	QSOID       int64 `bun:"id"`
	RecvdCallID int64 `bun:"recvd_call_id"`
}

// UnmatchedContacts returns the remaining state-None QSOs in scope with
// their received callsign references, in QSO order.
func (db *DB) UnmatchedContacts(ctx context.Context, logIDs []int64) ([]UnmatchedContact, error) {
	if len(logIDs) == 0 {
		return nil, nil
	}
	var contacts []UnmatchedContact
	err := db.NewSelect().
		ColumnExpr("q.id, q.recvd_call_id").
		TableExpr("qsos AS q").
		Where("q.match_id IS NULL AND q.match_state = ?", models.MatchNone).
		Where("q.log_id IN (?)", bun.In(logIDs)).
		OrderExpr("q.id ASC").
		Scan(ctx, &contacts)
	if err != nil {
		return nil, fmt.Errorf("error querying unmatched contacts: %v", err)
	}
	return contacts, nil
}

// ExchangeText is the received name and multiplier abbreviation of one QSO,
// used to corroborate a suspected busted callsign.
type ExchangeText struct {
	Name string `bun:"recvd_name"`
	Mult string `bun:"mult"`
}

// RecvdExchangeText returns the received name/multiplier text of one QSO.
func (db *DB) RecvdExchangeText(ctx context.Context, qsoID int64) (ExchangeText, error) {
	var text ExchangeText
	err := db.NewSelect().
		ColumnExpr("q.recvd_name, coalesce(m.abbrev, '') AS mult").
		TableExpr("qsos AS q").
		Join("LEFT JOIN multipliers AS m ON m.id = q.recvd_mult_id").
		Where("q.id = ?", qsoID).
		Limit(1).
		Scan(ctx, &text)
	if err != nil {
		return ExchangeText{}, fmt.Errorf("error reading exchange text for QSO %d: %v", qsoID, err)
	}
	return text, nil
}

// ReferenceExchangeText returns the received exchange text of some other
// QSO in the contest addressed to the given base callsign. Reports found =
// false when no other QSO names that station.
func (db *DB) ReferenceExchangeText(ctx context.Context, contestID int64, baseCall string, excludeQSO int64) (ExchangeText, bool, error) {
	var text ExchangeText
	err := db.NewSelect().
		ColumnExpr("q.recvd_name, coalesce(m.abbrev, '') AS mult").
		TableExpr("qsos AS q").
		Join("JOIN callsigns AS c ON c.id = q.recvd_call_id").
		Join("LEFT JOIN multipliers AS m ON m.id = q.recvd_mult_id").
		Where("c.contest_id = ?", contestID).
		Where("c.base_call = ?", baseCall).
		Where("q.id != ?", excludeQSO).
		Limit(1).
		Scan(ctx, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return ExchangeText{}, false, nil
	}
	if err != nil {
		return ExchangeText{}, false, fmt.Errorf("error reading reference exchange for %s: %v", baseCall, err)
	}
	return text, true, nil
}
