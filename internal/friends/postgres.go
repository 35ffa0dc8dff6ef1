package friends

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// uniqueViolation PostgreSQL 唯一约束冲突错误码
const uniqueViolation = "23505"

const friendColumns = "user_id, friend_id, name, email, balance, created_at"

var _ Store = (*PostgresStore)(nil)

// PostgresStore 基于 pgxpool 的 Store，不拥有连接池生命周期。
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore 创建 PostgresStore。
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate 创建所需的表，可重复执行。
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("friends: migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]Friend, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+friendColumns+` FROM friendships WHERE user_id = $1 ORDER BY name, friend_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("friends: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Friend])
	if err != nil {
		return nil, fmt.Errorf("friends: list: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID, friendID string) (Friend, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+friendColumns+` FROM friendships WHERE user_id = $1 AND friend_id = $2`, userID, friendID)
	if err != nil {
		return Friend{}, fmt.Errorf("friends: get: %w", err)
	}
	f, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Friend])
	if errors.Is(err, pgx.ErrNoRows) {
		return Friend{}, ErrNotFound
	}
	if err != nil {
		return Friend{}, fmt.Errorf("friends: get: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) Add(ctx context.Context, f Friend) (Friend, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO friendships (user_id, friend_id, name, email, balance)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		f.UserID, f.FriendID, f.Name, f.Email, f.Balance,
	).Scan(&f.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return Friend{}, ErrConflict
	}
	if err != nil {
		return Friend{}, fmt.Errorf("friends: add: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) Remove(ctx context.Context, userID, friendID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM friendships WHERE user_id = $1 AND friend_id = $2`, userID, friendID)
	if err != nil {
		return fmt.Errorf("friends: remove: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
