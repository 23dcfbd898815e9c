package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zefir/reakcja-go-backend/logger"
)

// Store archives finished games. Live session state never touches the
// database; losing the process loses the sessions by design.
type Store struct {
	pool *pgxpool.Pool
}

// FinishedGame is one archived result row.
type FinishedGame struct {
	Code        string
	WinnerID    string
	WinnerName  string
	MoveCount   int
	PlayerCount int
	GridWidth   int
	GridHeight  int
}

// Open creates the connection pool, verifies the database is reachable
// and makes sure the archive table exists.
func Open(ctx context.Context, uri string) (*Store, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	createTableQuery := `
	CREATE TABLE IF NOT EXISTS finished_games (
		id SERIAL PRIMARY KEY,
		code TEXT NOT NULL,
		winner_id TEXT NOT NULL,
		winner_name TEXT NOT NULL,
		move_count INT NOT NULL,
		player_count INT NOT NULL,
		grid_width INT NOT NULL,
		grid_height INT NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := pool.Exec(ctx, createTableQuery); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create finished_games table: %w", err)
	}

	logger.Log.Info().Msg("postgres connection established, match archive enabled")
	return &Store{pool: pool}, nil
}

func (s *Store) SaveFinishedGame(ctx context.Context, g FinishedGame) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO finished_games
			(code, winner_id, winner_name, move_count, player_count, grid_width, grid_height)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.Code, g.WinnerID, g.WinnerName, g.MoveCount, g.PlayerCount, g.GridWidth, g.GridHeight,
	)
	if err != nil {
		return fmt.Errorf("failed to insert finished game %s: %w", g.Code, err)
	}
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
		logger.Log.Info().Msg("postgres connection pool closed")
	}
}
