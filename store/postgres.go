package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgx.Conn used by PostgresSlot.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSlot stores the collection as one jsonb row of "garage-booking".booking_slots.
type PostgresSlot struct {
	db   DB
	name string
}

func NewPostgresSlot(db DB, name string) *PostgresSlot {
	return &PostgresSlot{db: db, name: name}
}

func (p *PostgresSlot) Read(ctx context.Context) ([]byte, error) {
	sql := `
			SELECT data::text
			FROM "garage-booking".booking_slots
			WHERE name=$1;
		`

	var data string
	err := p.db.QueryRow(ctx, sql, p.name).Scan(&data)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read slot '%v': %w", p.name, err)
	}

	return []byte(data), nil
}

func (p *PostgresSlot) Write(ctx context.Context, data []byte) error {
	sql := `
			INSERT INTO "garage-booking".booking_slots(name, data, "updatedAt")
			VALUES ($1, $2::jsonb, now())
			ON CONFLICT (name) DO UPDATE
			SET data=EXCLUDED.data, "updatedAt"=EXCLUDED."updatedAt";
		`

	_, err := p.db.Exec(ctx, sql, p.name, string(data))

	if err != nil {
		return fmt.Errorf("failed to write slot '%v': %w", p.name, err)
	}

	return nil
}
