package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Sequence names used for human-readable record codes.
const (
	ScheduleSeq = "schedule_seq"
	RequestSeq  = "request_seq"
)

// CodeAllocator hands out sequential human-readable codes such as SM-17 or
// MR-4. Backed by PostgreSQL sequences, so allocation is atomic and codes never
// repeat even under concurrent inserts.
type CodeAllocator interface {
	Next(ctx context.Context, sequence, prefix string) (string, error)
}

type pgAllocator struct{ pool *pgxpool.Pool }

func NewCodeAllocator(pool *pgxpool.Pool) CodeAllocator {
	return &pgAllocator{pool: pool}
}

func (a *pgAllocator) Next(ctx context.Context, sequence, prefix string) (string, error) {
	var n int64
	// Sequence names are compile-time constants, never user input.
	err := a.pool.QueryRow(ctx, fmt.Sprintf(`SELECT nextval('%s')`, sequence)).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("allocate code from %s: %w", sequence, err)
	}
	return fmt.Sprintf("%s-%d", prefix, n), nil
}
