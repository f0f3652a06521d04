// Package storage keeps an append-only history of finished rounds.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scythe504/hangman-rooms/internal"
	"github.com/scythe504/hangman-rooms/internal/game"
	"github.com/scythe504/hangman-rooms/internal/storage/migrations"
)

var ErrUnexpectedDatabase = errors.New("storage: unexpected database error")

type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ game.Recorder = (*PostgresStore)(nil)

// Open runs the migrations and connects a pool.
func Open(ctx context.Context, connString string) (*PostgresStore, error) {
	if err := migrations.Migrate(connString); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// RecordRound stores a finished round and its standings in one transaction.
func (s *PostgresStore) RecordRound(ctx context.Context, record internal.RoundRecord) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var roundID int64
		err := tx.QueryRow(ctx,
			`INSERT INTO rounds (room, round, word, started_at, ended_at)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			record.Room, record.Round, record.Word, record.StartedAt, record.EndedAt,
		).Scan(&roundID)
		if err != nil {
			return err
		}

		rows := make([][]any, len(record.Standings))
		for i, st := range record.Standings {
			rows[i] = []any{roundID, st.Rank, i, st.Name, st.Solved, st.Elapsed.Milliseconds(), st.Mistakes, st.Eliminated}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"standings"},
			[]string{"round_id", "rank", "position", "player", "solved", "elapsed_ms", "mistakes", "eliminated"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
	return wrap(err)
}

// RecentRounds returns the latest rounds, newest first, with their standings.
func (s *PostgresStore) RecentRounds(ctx context.Context, limit int) ([]internal.RoundRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, room, round, word, started_at, ended_at
		 FROM rounds ORDER BY ended_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, wrap(err)
	}

	var ids []int64
	var records []internal.RoundRecord
	for rows.Next() {
		var id int64
		var rec internal.RoundRecord
		if err := rows.Scan(&id, &rec.Room, &rec.Round, &rec.Word, &rec.StartedAt, &rec.EndedAt); err != nil {
			rows.Close()
			return nil, wrap(err)
		}
		ids = append(ids, id)
		records = append(records, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}
	if len(ids) == 0 {
		return records, nil
	}

	index := make(map[int64]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	rows, err = s.pool.Query(ctx,
		`SELECT round_id, rank, player, solved, elapsed_ms, mistakes, eliminated
		 FROM standings WHERE round_id = ANY($1) ORDER BY round_id, position`, ids)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		var roundID, elapsedMs int64
		var st internal.Standing
		if err := rows.Scan(&roundID, &st.Rank, &st.Name, &st.Solved, &elapsedMs, &st.Mistakes, &st.Eliminated); err != nil {
			return nil, wrap(err)
		}
		st.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		i := index[roundID]
		records[i].Standings = append(records[i].Standings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}
	return records, nil
}

func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrUnexpectedDatabase, err)
	}
}
