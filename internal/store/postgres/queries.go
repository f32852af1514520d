package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/flags/internal/model"
)

// flagColumns is the column list used for SELECT statements on feature_flags.
const flagColumns = `name, enabled, description, updated_at`

func queryGetFlag(ctx context.Context, db *sql.DB, name string) (*model.Flag, bool, error) {
	row := db.QueryRowContext(ctx, `SELECT `+flagColumns+` FROM feature_flags WHERE name = $1`, name)
	f, err := scanFlag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("get flag", err)
	}
	return f, true, nil
}

// queryPutFlag upserts in a single statement. The WHERE clause keeps a row
// whose updated_at is newer than the incoming one, so a slow writer cannot
// move the timestamp backwards.
func queryPutFlag(ctx context.Context, db *sql.DB, f *model.Flag) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO feature_flags (name, enabled, description, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at
		WHERE feature_flags.updated_at <= EXCLUDED.updated_at`,
		f.Name,
		f.Enabled,
		f.Description,
		f.UpdatedAt,
	)
	return classify("put flag", err)
}

func queryListFlags(ctx context.Context, db *sql.DB) ([]*model.Flag, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+flagColumns+` FROM feature_flags ORDER BY name`)
	if err != nil {
		return nil, classify("list flags", err)
	}
	defer rows.Close()

	flags, err := scanFlags(rows)
	if err != nil {
		return nil, classify("scan flags", err)
	}
	return flags, nil
}

func queryDeleteFlag(ctx context.Context, db *sql.DB, name string) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM feature_flags WHERE name = $1`, name)
	if err != nil {
		return false, classify("delete flag", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
