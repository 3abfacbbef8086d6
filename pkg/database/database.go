package database

import (
	"context"
	"database/sql"
	"fmt"

	"qsomatch/pkg/models"

	"github.com/spf13/viper"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type DB struct {
	*bun.DB

	callCache map[string]int64
	multCache map[string]int64
}

func NewDB() (*DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		viper.GetString("database.user"),
		viper.GetString("database.password"),
		viper.GetString("database.host"),
		viper.GetInt("database.port"),
		viper.GetString("database.dbname"),
		viper.GetString("database.sslmode"),
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	return &DB{
		DB:        db,
		callCache: make(map[string]int64),
		multCache: make(map[string]int64),
	}, nil
}

// InitSchema creates the tables and indexes if they don't exist.
func (db *DB) InitSchema(ctx context.Context) error {
	tables := []interface{}{
		(*models.Contest)(nil),
		(*models.Entity)(nil),
		(*models.Multiplier)(nil),
		(*models.Callsign)(nil),
		(*models.Log)(nil),
		(*models.QSO)(nil),
		(*models.Pair)(nil),
	}
	for _, model := range tables {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}

	indexes := []struct {
		name    string
		table   string
		columns string
	}{
		{"contests_name_year_idx", "contests", "name, year"},
		{"callsigns_contest_base_idx", "callsigns", "contest_id, base_call"},
		{"logs_contest_idx", "logs", "contest_id"},
		{"qsos_log_idx", "qsos", "log_id"},
		{"qsos_match_state_idx", "qsos", "match_state"},
		{"qsos_band_idx", "qsos", "band"},
		{"qsos_time_idx", "qsos", "time"},
		{"qsos_sent_call_idx", "qsos", "sent_call_id"},
		{"qsos_recvd_call_idx", "qsos", "recvd_call_id"},
		{"pairs_contest_idx", "pairs", "contest_id"},
		{"pairs_line_idx", "pairs", "line1, line2"},
	}
	for _, idx := range indexes {
		_, err := db.ExecContext(ctx, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.name, idx.table, idx.columns))
		if err != nil {
			return fmt.Errorf("failed to create index %s: %v", idx.name, err)
		}
	}

	return nil
}
