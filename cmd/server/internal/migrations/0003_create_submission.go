package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0003, Down0003)
}

func Up0003(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
CREATE TABLE submission (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    user_id UUID NOT NULL REFERENCES users (id),
    image_ref TEXT NOT NULL,
    thumbnail_ref TEXT,
    watermarked_ref TEXT,
    archive_key TEXT,
    description TEXT NOT NULL DEFAULT '',
    is_judged BOOLEAN NOT NULL DEFAULT FALSE,
    is_rejected BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);
`)
	if err != nil {
		return err
	}

	return nil
}

func Down0003(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE submission;`)
	if err != nil {
		return err
	}

	return nil
}
