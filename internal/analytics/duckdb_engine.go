// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/marquee/internal/eventlog"
	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/logging"
)

// DuckDBEngine counts with SQL over the CSV logs. The logs stay the
// source of truth; DuckDB runs in memory and holds no tables.
type DuckDBEngine struct {
	dir    string
	conn   *sql.DB
	reader *eventlog.Reader
}

// NewDuckDBEngine opens an in-memory DuckDB that reads logs from dir.
func NewDuckDBEngine(dir string) (*DuckDBEngine, error) {
	conn, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	if err := conn.Ping(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	logging.Debug().Str("dir", dir).Msg("duckdb analytics engine ready")
	return &DuckDBEngine{dir: dir, conn: conn, reader: eventlog.NewReader(dir)}, nil
}

// Name implements Engine.
func (e *DuckDBEngine) Name() string { return "duckdb" }

// Counts implements Engine.
func (e *DuckDBEngine) Counts(ctx context.Context) (map[events.Variant]Counts, error) {
	counts := map[events.Variant]Counts{}

	for _, kind := range []events.Kind{events.KindImpression, events.KindClick, events.KindConversion} {
		src, ok, err := e.source(kind)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		query := fmt.Sprintf(`
			SELECT variant, COUNT(*) AS n, COUNT(DISTINCT user_id) AS users
			FROM %s
			WHERE variant IN ('control', 'treatment')
			GROUP BY variant`, src)

		rows, err := e.conn.QueryContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", kind.LogName(), err)
		}
		for rows.Next() {
			var variant string
			var n, users int
			if err := rows.Scan(&variant, &n, &users); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("scan %s counts: %w", kind.LogName(), err)
			}
			v := events.Variant(variant)
			c := counts[v]
			switch kind {
			case events.KindImpression:
				c.Impressions = n
				c.Users = users
			case events.KindClick:
				c.Clicks = n
			case events.KindConversion:
				c.Conversions = n
			}
			counts[v] = c
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate %s counts: %w", kind.LogName(), err)
		}
	}
	return counts, nil
}

// Recent implements Engine with the log reader, which keeps file order.
func (e *DuckDBEngine) Recent(_ context.Context, kind events.Kind, n int) ([]events.Event, error) {
	return e.reader.Tail(kind, n)
}

// Close implements Engine.
func (e *DuckDBEngine) Close() error {
	e.conn.SetMaxIdleConns(0)
	return e.conn.Close()
}

// source returns the read_csv expression for kind, or ok=false when the log
// does not exist yet.
func (e *DuckDBEngine) source(kind events.Kind) (string, bool, error) {
	path := eventlog.Path(e.dir, kind)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return "", false, nil
	}

	cols := make([]string, len(events.Header))
	for i, name := range events.Header {
		cols[i] = fmt.Sprintf("'%s': 'VARCHAR'", name)
	}
	return fmt.Sprintf("read_csv(%s, header = true, columns = {%s}, ignore_errors = true)",
		quoteLiteral(path), strings.Join(cols, ", ")), true, nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Debug().Err(err).Msg("failed to close duckdb connection")
	}
}
