package models

import (
	"time"

	"github.com/uptrace/bun"
)

// QSO is one claimed contact, owned by exactly one log. The sent_* columns
// hold the exchange this station transmitted, the recvd_* columns what it
// copied from the counterpart. The raw callsign and location text is kept
// alongside the resolved references because resolution can be wrong.
//
// MatchID and MatchState implement the cross-match state machine: a state
// that HoldsPartner() implies MatchID is set, every other non-None state
// implies it is NULL.
type QSO struct {
	bun.BaseModel `bun:"table:qsos,alias:q"`

	ID        int64     `bun:"id,pk,autoincrement"`
	LogID     int64     `bun:"log_id,notnull"`
	Frequency int       `bun:"frequency,nullzero"`
	Band      string    `bun:"band,notnull,default:'unknown'"`
	Mode      string    `bun:"mode,notnull"`
	Time      time.Time `bun:"time,notnull"`

	SentCallID   int64  `bun:"sent_call_id,notnull"`
	SentEntityID int64  `bun:"sent_entity_id,nullzero"`
	SentMultID   int64  `bun:"sent_mult_id,nullzero"`
	SentSerial   int    `bun:"sent_serial,nullzero"`
	SentCallsign string `bun:"sent_callsign"`
	SentName     string `bun:"sent_name"`
	SentLocation string `bun:"sent_location"`

	RecvdCallID   int64  `bun:"recvd_call_id,notnull"`
	RecvdEntityID int64  `bun:"recvd_entity_id,nullzero"`
	RecvdMultID   int64  `bun:"recvd_mult_id,nullzero"`
	RecvdSerial   int    `bun:"recvd_serial,nullzero"`
	RecvdCallsign string `bun:"recvd_callsign"`
	RecvdName     string `bun:"recvd_name"`
	RecvdLocation string `bun:"recvd_location"`

	MatchID    int64      `bun:"match_id,nullzero"`
	MatchState MatchState `bun:"match_state,notnull,default:'None'"`
	Comment    string     `bun:"comment"`
}

// Pair is one adjudicated decision on an ambiguous QSO pair, keyed on the
// normalized line forms of both QSOs. Written once per adjudicated pair and
// consulted before asking again.
type Pair struct {
	bun.BaseModel `bun:"table:pairs,alias:p"`

	ID        int64  `bun:"id,pk,autoincrement"`
	ContestID int64  `bun:"contest_id,notnull"`
	Line1     string `bun:"line1,notnull"`
	Line2     string `bun:"line2,notnull"`
	IsMatch   bool   `bun:"is_match,notnull"`
}
