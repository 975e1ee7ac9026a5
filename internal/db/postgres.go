package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wuwenbin0122/lingolink/internal/models"
	"github.com/wuwenbin0122/lingolink/internal/utils"
)

type Postgres struct {
	Pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, cfg utils.PostgresConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.BuildDSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns >= 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout))
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Close() {
	if p == nil || p.Pool == nil {
		return
	}
	p.Pool.Close()
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return fmt.Errorf("postgres: pool not initialised")
	}

	stmt := strings.Join([]string{
		"CREATE TABLE IF NOT EXISTS users (",
		"    id TEXT PRIMARY KEY,",
		"    full_name TEXT NOT NULL,",
		"    email TEXT NOT NULL UNIQUE,",
		"    password TEXT NOT NULL,",
		"    bio TEXT NOT NULL DEFAULT '',",
		"    profile_picture TEXT NOT NULL DEFAULT '',",
		"    native_language TEXT NOT NULL DEFAULT '',",
		"    learning_language TEXT NOT NULL DEFAULT '',",
		"    location TEXT NOT NULL DEFAULT '',",
		"    is_onboarded BOOLEAN NOT NULL DEFAULT FALSE,",
		"    friends TEXT[] NOT NULL DEFAULT '{}',",
		"    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),",
		"    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()",
		")",
	}, "\n")

	if _, err := p.Pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}

	return nil
}

const userColumns = `id, full_name, email, password, bio, profile_picture, native_language,
	learning_language, location, is_onboarded, friends, created_at, updated_at`

// PostgresUsers stores users in the users table created by EnsureSchema.
type PostgresUsers struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgresUsers(pool *pgxpool.Pool) *PostgresUsers {
	return &PostgresUsers{pool: pool, now: utcNow}
}

func (s *PostgresUsers) Create(ctx context.Context, user *models.User) error {
	now := s.now()
	created := *user
	created.ID = uuid.NewString()
	created.Email = models.NormalizeEmail(user.Email)
	created.Friends = []string{}
	created.CreatedAt = now
	created.UpdatedAt = now

	const query = `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.pool.Exec(ctx, query,
		created.ID,
		created.FullName,
		created.Email,
		created.PasswordHash,
		created.Bio,
		created.ProfilePicture,
		created.NativeLanguage,
		created.LearningLanguage,
		created.Location,
		created.IsOnboarded,
		created.Friends,
		created.CreatedAt,
		created.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("postgres: insert user: %w", err)
	}

	*user = created
	return nil
}

func (s *PostgresUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.queryOne(ctx, s.pool, `SELECT `+userColumns+` FROM users WHERE email = $1`, models.NormalizeEmail(email))
}

func (s *PostgresUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.queryOne(ctx, s.pool, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// UpdateProfile locks the row, merges the update and writes it back in one transaction.
func (s *PostgresUsers) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	user, err := s.queryOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, err
	}

	update.Apply(user, s.now())

	const stmt = `UPDATE users SET full_name = $2, bio = $3, location = $4, native_language = $5,
		learning_language = $6, profile_picture = $7, is_onboarded = $8, updated_at = $9
		WHERE id = $1`
	if _, err := tx.Exec(ctx, stmt,
		user.ID,
		user.FullName,
		user.Bio,
		user.Location,
		user.NativeLanguage,
		user.LearningLanguage,
		user.ProfilePicture,
		user.IsOnboarded,
		user.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("postgres: update user profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: commit: %w", err)
	}

	return user, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresUsers) queryOne(ctx context.Context, q rowQuerier, query string, args ...any) (*models.User, error) {
	var user models.User
	err := q.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.Bio,
		&user.ProfilePicture,
		&user.NativeLanguage,
		&user.LearningLanguage,
		&user.Location,
		&user.IsOnboarded,
		&user.Friends,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres: query user: %w", err)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}
