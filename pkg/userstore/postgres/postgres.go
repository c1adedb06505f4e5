// Package postgres provides a PostgreSQL implementation of
// userstore.Repository using pgx/v5 connection pooling.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/basicgate/pkg/userstore"
)

// Store is a PostgreSQL-backed Repository.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements userstore.Repository at compile time.
var _ userstore.Repository = (*Store)(nil)

const userColumns = "id, email, password_hash, first_name, last_name, created_at, updated_at"

// attributeColumns maps searchable attributes to columns. Only these
// names are ever interpolated into SQL.
var attributeColumns = map[string]string{
	userstore.AttrID:        "id",
	userstore.AttrEmail:     "email",
	userstore.AttrFirstName: "first_name",
	userstore.AttrLastName:  "last_name",
}

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Backend returns "postgres".
func (s *Store) Backend() string { return "postgres" }

// FindByAttribute returns users whose attribute equals value, oldest first.
func (s *Store) FindByAttribute(ctx context.Context, name, value string) ([]*userstore.User, error) {
	column, ok := attributeColumns[name]
	if !ok {
		return nil, userstore.ErrUnknownAttribute
	}

	rows, err := s.pool.Query(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+column+" = $1 ORDER BY created_at, id",
		value,
	)
	if err != nil {
		return nil, fmt.Errorf("querying users by %s: %w", name, err)
	}
	return collectUsers(rows)
}

// Get retrieves a user by ID.
func (s *Store) Get(ctx context.Context, id string) (*userstore.User, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, userstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return u, nil
}

// List returns all users, oldest first.
func (s *Store) List(ctx context.Context) ([]*userstore.User, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return collectUsers(rows)
}

// Count returns the number of users.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// Save inserts u or updates the row with the same ID.
func (s *Store) Save(ctx context.Context, u *userstore.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = EXCLUDED.updated_at
	`,
		u.UserID, u.UserEmail, u.PasswordHash, u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

// Delete removes a user by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return userstore.ErrNotFound
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func collectUsers(rows pgx.Rows) ([]*userstore.User, error) {
	users, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("scanning users: %w", err)
	}
	return users, nil
}

func scanUser(row pgx.CollectableRow) (*userstore.User, error) {
	var u userstore.User
	err := row.Scan(&u.UserID, &u.UserEmail, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
