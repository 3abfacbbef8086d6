// Package report summarizes a matched contest: per-log score summaries,
// golden logs, duplicate lists, and band change counts.
package report

import (
	"context"
	"fmt"
	"io"

	"qsomatch/pkg/database"
	"qsomatch/pkg/models"

	"github.com/uptrace/bun"
)

// Reporter runs the read-only summary queries for one contest.
type Reporter struct {
	db        *database.DB
	contestID int64
}

// NewReporter returns a Reporter scoped to one contest.
func NewReporter(db *database.DB, contestID int64) *Reporter {
	return &Reporter{db: db, contestID: contestID}
}

// ScoreSummary is the per-log outcome of the match: raw claims and how many
// of them were lost to each cause.
type ScoreSummary struct {
	LogID    int64  `bun:"id"`
	Callsign string `bun:"callsign"`
	Raw      int    `bun:"raw"`
	Dupes    int    `bun:"dupes"`
	Busted   int    `bun:"busted"`
	NIL      int    `bun:"nil_qsos"`
	Outside  int    `bun:"outside"`
}

// Verified is the QSO credit after penalties: raw claims minus dupes,
// busted contacts and outside-contest claims, with each NIL costing the
// contact plus an equal penalty.
func (s ScoreSummary) Verified() int {
	v := s.Raw - s.Dupes - s.Busted - s.Outside - 2*s.NIL
	if v < 0 {
		v = 0
	}
	return v
}

// ScoreSummaries returns the summary for every log in the contest, highest
// verified count first.
func (r *Reporter) ScoreSummaries(ctx context.Context) ([]ScoreSummary, error) {
	busted := []models.MatchState{models.MatchPartial, models.MatchRemoved}
	var rows []ScoreSummary
	err := r.db.NewSelect().
		ColumnExpr("l.id, l.callsign").
		ColumnExpr("count(q.id) AS raw").
		ColumnExpr("count(*) FILTER (WHERE q.match_state = ?) AS dupes", models.MatchDupe).
		ColumnExpr("count(*) FILTER (WHERE q.match_state IN (?)) AS busted", bun.In(busted)).
		ColumnExpr("count(*) FILTER (WHERE q.match_state = ?) AS nil_qsos", models.MatchNIL).
		ColumnExpr("count(*) FILTER (WHERE q.match_state = ?) AS outside", models.MatchOutsideContest).
		TableExpr("logs AS l").
		Join("LEFT JOIN qsos AS q ON q.log_id = l.id").
		Where("l.contest_id = ?", r.contestID).
		GroupExpr("l.id, l.callsign").
		OrderExpr("l.callsign ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("error querying score summaries: %v", err)
	}
	return rows, nil
}

// GoldenLog is a log with no lost QSOs at all.
type GoldenLog struct {
	Callsign string `bun:"callsign"`
	QSOs     int    `bun:"num"`
}

// GoldenLogs returns the logs in which every claimed contact survived,
// largest first.
func (r *Reporter) GoldenLogs(ctx context.Context) ([]GoldenLog, error) {
	lost := []models.MatchState{
		models.MatchPartial, models.MatchNIL,
		models.MatchOutsideContest, models.MatchRemoved,
	}
	var rows []GoldenLog
	err := r.db.NewSelect().
		ColumnExpr("l.callsign, count(q.id) AS num").
		TableExpr("logs AS l").
		Join("JOIN qsos AS q ON q.log_id = l.id").
		Where("l.contest_id = ?", r.contestID).
		GroupExpr("l.id, l.callsign").
		Having("count(*) FILTER (WHERE q.match_state IN (?)) = 0", bun.In(lost)).
		OrderExpr("num DESC, l.callsign ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("error querying golden logs: %v", err)
	}
	return rows, nil
}

// DupeQSO identifies one duplicate contact by its sent serial and the
// station it claimed.
type DupeQSO struct {
	Serial   int    `bun:"sent_serial"`
	Callsign string `bun:"recvd_callsign"`
}

// DupeQSOs returns a log's duplicate contacts in serial order.
func (r *Reporter) DupeQSOs(ctx context.Context, logID int64) ([]DupeQSO, error) {
	var rows []DupeQSO
	err := r.db.NewSelect().
		ColumnExpr("q.sent_serial, q.recvd_callsign").
		TableExpr("qsos AS q").
		Where("q.log_id = ?", logID).
		Where("q.match_state = ?", models.MatchDupe).
		OrderExpr("q.sent_serial ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("error querying dupe QSOs: %v", err)
	}
	return rows, nil
}

// NumBandChanges counts how many times a log changed band over the course
// of the contest, operating order.
func (r *Reporter) NumBandChanges(ctx context.Context, logID int64) (int, error) {
	var bands []string
	err := r.db.NewSelect().
		ColumnExpr("q.band").
		TableExpr("qsos AS q").
		Where("q.log_id = ?", logID).
		OrderExpr("q.time ASC, q.sent_serial ASC, q.id ASC").
		Scan(ctx, &bands)
	if err != nil {
		return 0, fmt.Errorf("error querying bands for log %d: %v", logID, err)
	}
	return countChanges(bands), nil
}

func countChanges(bands []string) int {
	changes := 0
	prev := ""
	for _, band := range bands {
		if band != prev {
			changes++
			prev = band
		}
	}
	if changes > 0 {
		changes--
	}
	return changes
}

// WriteScores renders the score summary table.
func (r *Reporter) WriteScores(ctx context.Context, w io.Writer) error {
	rows, err := r.ScoreSummaries(ctx)
	if err != nil {
		return err
	}
	trows := make([][]string, 0, len(rows))
	for _, s := range rows {
		trows = append(trows, []string{
			s.Callsign,
			fmt.Sprint(s.Raw), fmt.Sprint(s.Dupes), fmt.Sprint(s.Busted),
			fmt.Sprint(s.NIL), fmt.Sprint(s.Outside), fmt.Sprint(s.Verified()),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Callsign", "Raw", "Dupe", "Busted", "NIL", "Outside", "Verified"},
		trows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	return nil
}

// WriteGolden renders the golden log table.
func (r *Reporter) WriteGolden(ctx context.Context, w io.Writer) error {
	rows, err := r.GoldenLogs(ctx)
	if err != nil {
		return err
	}
	trows := make([][]string, 0, len(rows))
	for _, g := range rows {
		trows = append(trows, []string{g.Callsign, fmt.Sprint(g.QSOs)})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Callsign", "QSOs"},
		trows,
		[]columnAlignment{alignLeft, alignRight},
	))
	return nil
}
