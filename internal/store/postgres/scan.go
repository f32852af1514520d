package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/flags/internal/model"
	"github.com/alfredjeanlab/flags/internal/store"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanFlag scans a single row into a model.Flag.
// The row must contain columns in the order defined by flagColumns.
func scanFlag(row scannable) (*model.Flag, error) {
	var (
		f           model.Flag
		description sql.NullString
	)
	if err := row.Scan(&f.Name, &f.Enabled, &description, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.Description = description.String
	f.UpdatedAt = f.UpdatedAt.UTC()
	return &f, nil
}

// scanFlags scans all rows into a slice. It never returns a nil slice.
func scanFlags(rows *sql.Rows) ([]*model.Flag, error) {
	flags := []*model.Flag{}
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

// classify wraps err with op, marking connection-level failures as
// store.ErrUnavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if isConnectionError(err) {
		return store.Unavailable(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnectionError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", // connection_exception
			"53", // insufficient_resources
			"57": // operator_intervention (admin_shutdown, cannot_connect_now, ...)
			return true
		}
	}
	return false
}
