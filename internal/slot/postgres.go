package slot

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Postgres stores slots as rows of the kv_slots table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Load(ctx context.Context, key string) ([]byte, error) {
	const query = `
		SELECT value
		FROM kv_slots
		WHERE key = $1`
	var data []byte
	if err := p.db.QueryRowContext(ctx, query, key).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (p *Postgres) Save(ctx context.Context, key string, data []byte) error {
	const query = `
		INSERT INTO kv_slots (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at`
	_, err := p.db.ExecContext(ctx, query, key, data, time.Now().UTC())
	return err
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
