package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0004, Down0004)
}

func Up0004(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
CREATE TABLE judgment (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    submission_id UUID NOT NULL UNIQUE REFERENCES submission (id),
    judge_id UUID NOT NULL REFERENCES users (id),
    verdict TEXT NOT NULL,
    speed_kmh DOUBLE PRECISION,
    comment TEXT NOT NULL,
    detailed_comment TEXT NOT NULL DEFAULT '',
    rejection_reason TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);
`)
	if err != nil {
		return err
	}

	return nil
}

func Down0004(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE judgment;`)
	if err != nil {
		return err
	}

	return nil
}
