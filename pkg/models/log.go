package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Log is one participant's submission. ClockAdj is a per-log offset in
// seconds applied to all of the log's QSO timestamps when they are compared
// against other logs; it is computed before matching and cleared on restart.
type Log struct {
	bun.BaseModel `bun:"table:logs,alias:l"`

	ID            int64  `bun:"id,pk,autoincrement"`
	ContestID     int64  `bun:"contest_id,notnull"`
	Callsign      string `bun:"callsign,notnull"`
	CallID        int64  `bun:"call_id,notnull"`
	Email         string `bun:"email"`
	MultiplierID  int64  `bun:"multiplier_id,nullzero"`
	EntityID      int64  `bun:"entity_id,nullzero"`
	OpClass       string `bun:"op_class"`
	Club          string `bun:"club"`
	Name          string `bun:"name"`
	ClockAdj      int    `bun:"clock_adj,notnull,default:0"`
	VerifiedScore int64  `bun:"verified_score,nullzero"`
	VerifiedQSOs  int64  `bun:"verified_qsos,nullzero"`
	VerifiedMults int64  `bun:"verified_mults,nullzero"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
