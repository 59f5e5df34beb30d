package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0007, Down0007)
}

func Up0007(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
CREATE TABLE report (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    submission_id UUID NOT NULL REFERENCES submission (id),
    reporter_id UUID NOT NULL REFERENCES users (id),
    reason TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);
`)
	if err != nil {
		return err
	}

	return nil
}

func Down0007(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE report;`)
	if err != nil {
		return err
	}

	return nil
}
