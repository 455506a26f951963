// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package eventlog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tomtom215/marquee/internal/events"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Path returns the log file for kind under dir.
func Path(dir string, kind events.Kind) string {
	return filepath.Join(dir, kind.LogName()+".csv")
}

// Store appends events to per-kind CSV logs under a directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created lazily.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the log directory.
func (s *Store) Dir() string {
	return s.dir
}

// Append writes e as one row to the log matching e.Kind, writing the
// header first when the file is new.
func (s *Store) Append(e events.Event) error {
	if !e.Kind.Valid() {
		return fmt.Errorf("append: %w: %q", events.ErrUnknownKind, e.Kind)
	}
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	path := Path(s.dir, e.Kind)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat event log: %w", err)
	}

	buf, err := encodeRows(info.Size() == 0, e.Row())
	if err != nil {
		_ = f.Close()
		return err
	}

	if err := writeRow(f, info.Size(), buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("write event log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close event log: %w", err)
	}
	return nil
}

type truncateWriter interface {
	io.Writer
	Truncate(size int64) error
}

// writeRow writes buf in one call. A short write is cut back to size so
// the next append starts on a fresh line.
func writeRow(w truncateWriter, size int64, buf []byte) error {
	n, err := w.Write(buf)
	if err == nil {
		return nil
	}
	if n > 0 {
		if terr := w.Truncate(size); terr != nil {
			return errors.Join(err, fmt.Errorf("truncate partial row: %w", terr))
		}
	}
	return err
}

// encodeRows renders the row, preceded by the header when withHeader is
// set, into a single buffer so that the file sees exactly one write.
func encodeRows(withHeader bool, row []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if withHeader {
		if err := w.Write(events.Header); err != nil {
			return nil, fmt.Errorf("encode header: %w", err)
		}
	}
	if err := w.Write(row); err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	return buf.Bytes(), nil
}
