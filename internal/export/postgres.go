package export

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/db"
)

// DefaultTable receives rows from PostgresSink.
const DefaultTable = "leads"

// leadsMigration mirrors Columns in snake_case.
const leadsMigration = `
CREATE TABLE IF NOT EXISTS %s (
	tier               TEXT NOT NULL DEFAULT '',
	lead_score         INTEGER NOT NULL DEFAULT 0,
	business_name      TEXT NOT NULL DEFAULT '',
	category           TEXT NOT NULL DEFAULT '',
	phone              TEXT NOT NULL DEFAULT '',
	email              TEXT NOT NULL DEFAULT '',
	website            TEXT NOT NULL DEFAULT '',
	address            TEXT NOT NULL DEFAULT '',
	city               TEXT NOT NULL DEFAULT '',
	state              TEXT NOT NULL DEFAULT '',
	zip                TEXT NOT NULL DEFAULT '',
	rating             DOUBLE PRECISION NOT NULL DEFAULT 0,
	review_count       INTEGER NOT NULL DEFAULT 0,
	website_summary    TEXT NOT NULL DEFAULT '',
	cold_email_subject TEXT NOT NULL DEFAULT '',
	cold_email_body    TEXT NOT NULL DEFAULT '',
	voicemail_script   TEXT NOT NULL DEFAULT '',
	sms_message        TEXT NOT NULL DEFAULT '',
	facebook           TEXT NOT NULL DEFAULT '',
	instagram          TEXT NOT NULL DEFAULT '',
	linkedin           TEXT NOT NULL DEFAULT '',
	additional_emails  TEXT NOT NULL DEFAULT '',
	additional_phones  TEXT NOT NULL DEFAULT '',
	has_contact_form   BOOLEAN NOT NULL DEFAULT false,
	has_booking_widget BOOLEAN NOT NULL DEFAULT false,
	has_chat_widget    BOOLEAN NOT NULL DEFAULT false,
	score_reasons      TEXT NOT NULL DEFAULT '',
	source             TEXT NOT NULL DEFAULT '',
	collected_at       TIMESTAMPTZ,
	dedupe_id          TEXT PRIMARY KEY
);
`

// PostgresSink upserts rows into a table keyed by dedupe_id.
type PostgresSink struct {
	pool  db.Pool
	table string
}

// NewPostgresSink creates a sink writing to table (DefaultTable when empty).
func NewPostgresSink(pool db.Pool, table string) *PostgresSink {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresSink{pool: pool, table: table}
}

// Migrate creates the target table if it does not exist.
func (s *PostgresSink) Migrate(ctx context.Context) error {
	table := pgx.Identifier(strings.SplitN(s.table, ".", 2)).Sanitize()
	_, err := s.pool.Exec(ctx, fmt.Sprintf(leadsMigration, table))
	return eris.Wrap(err, "export: migrate leads table")
}

// Write implements Sink. A lead seen in an earlier run is updated in place.
func (s *PostgresSink) Write(ctx context.Context, rows []Row) error {
	data := make([][]any, len(rows))
	for i, r := range rows {
		vals := r.Values()
		if r.CollectedAt.IsZero() {
			vals[len(vals)-2] = nil
		}
		data[i] = vals
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        s.table,
		Columns:      DBColumns(),
		ConflictKeys: []string{"dedupe_id"},
	}, data)
	if err != nil {
		return eris.Wrap(err, "export: upsert leads")
	}

	zap.L().Info("export: upserted leads",
		zap.String("table", s.table),
		zap.Int64("rows", n),
	)
	return nil
}

// DBColumns returns Columns in snake_case.
func DBColumns() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = snakeCase(c)
	}
	return out
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
