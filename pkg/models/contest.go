package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Contest struct {
	bun.BaseModel `bun:"table:contests,alias:c"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	Year      int       `bun:"year,notnull"`
	Start     time.Time `bun:"start,nullzero"`
	End       time.Time `bun:"finish,nullzero"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
