package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresKV stores blobs in a single two-column table. The revision
// check runs under SELECT ... FOR UPDATE so concurrent writers serialize
// on the row.
type PostgresKV struct {
	db *sql.DB
}

func NewPostgresKV(db *sql.DB) *PostgresKV { return &PostgresKV{db: db} }

// EnsureSchema creates the blobs table when missing.
func (p *PostgresKV) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS csf_blobs (
			key        TEXT PRIMARY KEY,
			rev        BIGINT NOT NULL,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("ensure csf_blobs schema: %w", err)
	}
	return nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) (Blob, error) {
	var b Blob
	err := p.db.QueryRowContext(ctx,
		`SELECT rev, data FROM csf_blobs WHERE key = $1`, key,
	).Scan(&b.Rev, &b.Data)
	if err == sql.ErrNoRows {
		return Blob{}, ErrMiss
	}
	if err != nil {
		return Blob{}, err
	}
	return b, nil
}

func (p *PostgresKV) Put(ctx context.Context, key string, data []byte, expectRev int64) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var cur int64
	err = tx.QueryRowContext(ctx,
		`SELECT rev FROM csf_blobs WHERE key = $1 FOR UPDATE`, key,
	).Scan(&cur)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}

	if expectRev != RevAny && expectRev != cur {
		return 0, ErrRevisionConflict
	}

	next := cur + 1
	if cur == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO csf_blobs (key, rev, data) VALUES ($1, $2, $3)`,
			key, next, data)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE csf_blobs SET rev = $2, data = $3, updated_at = CURRENT_TIMESTAMP WHERE key = $1`,
			key, next, data)
	}
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return next, nil
}
