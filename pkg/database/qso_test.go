package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"qsomatch/pkg/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := &DB{
		DB:        bun.NewDB(sqldb, sqlitedialect.New()),
		callCache: make(map[string]int64),
		multCache: make(map[string]int64),
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	return db
}

type testContest struct {
	contestID int64
	qsos      []int64
}

// seedContest creates one contest with three single-QSO logs: the first two
// claim each other, the third claims the first station too.
func seedContest(t *testing.T, db *DB) testContest {
	t.Helper()
	ctx := context.Background()

	contestID, err := db.AddOrLookupContest(ctx, "CA-QSO-PARTY", 2025, true)
	if err != nil {
		t.Fatalf("AddOrLookupContest: %v", err)
	}
	mult, err := db.AddOrLookupMultiplier(ctx, "SCV")
	if err != nil {
		t.Fatalf("AddOrLookupMultiplier: %v", err)
	}

	calls := []string{"W6YX", "K5TR", "N0XYZ"}
	callIDs := make([]int64, len(calls))
	logIDs := make([]int64, len(calls))
	for i, call := range calls {
		callIDs[i], err = db.AddOrLookupCall(ctx, contestID, call, true)
		if err != nil {
			t.Fatalf("AddOrLookupCall(%s): %v", call, err)
		}
		logIDs[i], err = db.InsertLog(ctx, &models.Log{
			ContestID: contestID,
			Callsign:  call,
			CallID:    callIDs[i],
		})
		if err != nil {
			t.Fatalf("InsertLog(%s): %v", call, err)
		}
	}

	at := time.Date(2025, 10, 4, 16, 12, 0, 0, time.UTC)
	contacts := []struct{ owner, worked int }{
		{0, 1},
		{1, 0},
		{2, 0},
	}
	c := testContest{contestID: contestID}
	for serial, contact := range contacts {
		qso := &models.QSO{
			LogID:       logIDs[contact.owner],
			Band:        "20m",
			Mode:        models.ModeCW,
			Time:        at,
			SentCallID:  callIDs[contact.owner],
			SentMultID:  mult,
			SentSerial:  serial + 1,
			RecvdCallID: callIDs[contact.worked],
			RecvdMultID: mult,
			RecvdSerial: serial + 1,
			MatchState:  models.MatchNone,
		}
		if err := db.InsertQSO(ctx, qso); err != nil {
			t.Fatalf("InsertQSO: %v", err)
		}
		c.qsos = append(c.qsos, qso.ID)
	}
	return c
}

func fetchQSO(t *testing.T, db *DB, id int64) models.QSO {
	t.Helper()
	var qso models.QSO
	err := db.NewSelect().
		Model(&qso).
		Where("id = ?", id).
		Scan(context.Background())
	if err != nil {
		t.Fatalf("reading QSO %d: %v", id, err)
	}
	return qso
}

func TestClaimPairAtMostOnce(t *testing.T) {
	db := testDB(t)
	c := seedContest(t, db)
	ctx := context.Background()

	claimed, err := db.ClaimPair(ctx, c.qsos[0], c.qsos[1], models.MatchFull, models.MatchFull)
	if err != nil {
		t.Fatalf("first ClaimPair: %v", err)
	}
	if !claimed {
		t.Fatal("first claim on unmatched QSOs did not link")
	}

	// The repeat claim of an already-linked QSO must lose silently and
	// leave the first link untouched.
	claimed, err = db.ClaimPair(ctx, c.qsos[0], c.qsos[2], models.MatchFull, models.MatchFull)
	if err != nil {
		t.Fatalf("second ClaimPair: %v", err)
	}
	if claimed {
		t.Fatal("claim on an already-linked QSO succeeded")
	}

	q1 := fetchQSO(t, db, c.qsos[0])
	if q1.MatchID != c.qsos[1] || q1.MatchState != models.MatchFull {
		t.Errorf("first QSO = (partner %d, %s), want (%d, Full)", q1.MatchID, q1.MatchState, c.qsos[1])
	}
	q2 := fetchQSO(t, db, c.qsos[1])
	if q2.MatchID != c.qsos[0] || q2.MatchState != models.MatchFull {
		t.Errorf("second QSO = (partner %d, %s), want (%d, Full)", q2.MatchID, q2.MatchState, c.qsos[0])
	}
}

func TestClaimPairRollsBackLoserSide(t *testing.T) {
	db := testDB(t)
	c := seedContest(t, db)
	ctx := context.Background()

	if _, err := db.ClaimPair(ctx, c.qsos[0], c.qsos[1], models.MatchFull, models.MatchFull); err != nil {
		t.Fatalf("ClaimPair: %v", err)
	}

	// q3 is still free, but its partner is taken: the conditional update on
	// q3 applies and must be rolled back when the partner side misses.
	claimed, err := db.ClaimPair(ctx, c.qsos[2], c.qsos[0], models.MatchPartial, models.MatchFull)
	if err != nil {
		t.Fatalf("conflicting ClaimPair: %v", err)
	}
	if claimed {
		t.Fatal("claim against a linked partner succeeded")
	}

	q3 := fetchQSO(t, db, c.qsos[2])
	if q3.MatchID != 0 || q3.MatchState != models.MatchNone {
		t.Errorf("loser side = (partner %d, %s), want unmatched None", q3.MatchID, q3.MatchState)
	}
}

func TestSetStateIfNoneSkipsLinkedQSO(t *testing.T) {
	db := testDB(t)
	c := seedContest(t, db)
	ctx := context.Background()

	if _, err := db.ClaimPair(ctx, c.qsos[0], c.qsos[1], models.MatchFull, models.MatchFull); err != nil {
		t.Fatalf("ClaimPair: %v", err)
	}

	moved, err := db.SetStateIfNone(ctx, c.qsos[0], models.MatchNIL, "")
	if err != nil {
		t.Fatalf("SetStateIfNone: %v", err)
	}
	if moved {
		t.Error("linked QSO moved to NIL")
	}

	moved, err = db.SetStateIfNone(ctx, c.qsos[2], models.MatchBye, "")
	if err != nil {
		t.Fatalf("SetStateIfNone: %v", err)
	}
	if !moved {
		t.Error("unmatched QSO did not move to Bye")
	}
	if got := fetchQSO(t, db, c.qsos[2]); got.MatchState != models.MatchBye {
		t.Errorf("state = %s, want Bye", got.MatchState)
	}
}
