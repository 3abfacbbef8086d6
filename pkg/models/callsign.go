package models

import (
	"github.com/uptrace/bun"
)

// Callsign is the canonical base form of an operator identity within one
// contest. ValidCall is set at ingestion from the syntax check; LogRecvd is
// set when that station's own log is ingested. Both are read-only during
// matching.
type Callsign struct {
	bun.BaseModel `bun:"table:callsigns,alias:cs"`

	ID        int64  `bun:"id,pk,autoincrement"`
	ContestID int64  `bun:"contest_id,notnull"`
	BaseCall  string `bun:"base_call,notnull"`
	LogRecvd  bool   `bun:"log_recvd,notnull,default:false"`
	ValidCall bool   `bun:"valid_call,notnull,default:false"`
}

type Multiplier struct {
	bun.BaseModel `bun:"table:multipliers,alias:m"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Abbrev   string `bun:"abbrev,notnull,unique"`
	WasState string `bun:"was_state"`
	EntityID int64  `bun:"entity_id,nullzero"`
}

// Entity is a DXCC entity; logs and multipliers may reference one for
// continent-based reporting.
type Entity struct {
	bun.BaseModel `bun:"table:entities,alias:en"`

	ID        int64  `bun:"id,pk"`
	Name      string `bun:"name,notnull"`
	Prefix    string `bun:"prefix"`
	Continent string `bun:"continent"`
}
