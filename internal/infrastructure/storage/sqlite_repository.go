// Package storage persists computed reservation summaries in a local sqlite
// lookup table keyed by domain name.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/alexjc/weboptout/internal/domain"
	"github.com/alexjc/weboptout/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS reservations (
    domain     TEXT PRIMARY KEY,
    kind       INTEGER NOT NULL,
    url        TEXT NOT NULL DEFAULT '',
    summary    TEXT NOT NULL DEFAULT '',
    checked_at TIMESTAMP NOT NULL
)`

// SQLiteRepository implements the reservation lookup table. Only the verdict
// summary is stored; audit trails stay with the run that produced them.
type SQLiteRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.ReservationStore = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (and if needed creates) the database at path.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open reservation database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create reservations table: %w", err)
	}
	return &SQLiteRepository{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}, nil
}

// Lookup returns the stored verdict for host, if any.
func (r *SQLiteRepository) Lookup(ctx context.Context, host string) (domain.Reservation, bool, error) {
	query, args, err := r.sb.
		Select("kind", "url", "summary").
		From("reservations").
		Where(sq.Eq{"domain": host}).
		ToSql()
	if err != nil {
		return domain.Reservation{}, false, fmt.Errorf("build lookup query: %w", err)
	}

	var kind int
	var url, summary string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&kind, &url, &summary)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reservation{}, false, nil
	}
	if err != nil {
		return domain.Reservation{}, false, fmt.Errorf("lookup %s: %w", host, err)
	}

	res := domain.Reservation{Kind: domain.Kind(kind), URL: url}
	if summary != "" {
		res.Outcome = []domain.Match{{Excerpt: summary, Paragraph: summary}}
	}
	return res, true, nil
}

// Save upserts the verdict summary for host.
func (r *SQLiteRepository) Save(ctx context.Context, host string, res domain.Reservation) error {
	query, args, err := r.sb.
		Insert("reservations").
		Columns("domain", "kind", "url", "summary", "checked_at").
		Values(host, int(res.Kind), res.URL, res.Summary(), time.Now().UTC()).
		Suffix(`ON CONFLICT(domain) DO UPDATE SET
            kind = excluded.kind,
            url = excluded.url,
            summary = excluded.summary,
            checked_at = excluded.checked_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save %s: %w", host, err)
	}
	return nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
