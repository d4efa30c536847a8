package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/MarcelKueck/shareyourspace-mvp/internal/models"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

const uniqueViolation = "23505"

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

// Store provides Postgres-backed persistence for users.
type Store struct {
	db *sql.DB
}

// NewUserStore opens a connection pool and applies pending migrations.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle without migrating; used by tests.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases database resources.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

const userColumns = "id, email, password_hash, full_name, role, status, created_at, updated_at"

// Insert creates a new user row. A duplicate email surfaces as
// storage.ErrAlreadyExists via the unique index, never via a pre-check.
func (s *Store) Insert(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	const query = `
		INSERT INTO users (id, email, password_hash, full_name, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns
	row := s.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.Role, user.Status)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

// FindByEmail fetches a user by email, compared case-insensitively.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return findOne(s.db.QueryRowContext(ctx, query, email))
}

// FindByID fetches a user by identifier.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return findOne(s.db.QueryRowContext(ctx, query, id))
}

// Update persists mutable fields (password hash and status) of an
// existing user. Email and role never change after creation.
func (s *Store) Update(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		UPDATE users
		SET password_hash = $2, status = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return findOne(s.db.QueryRowContext(ctx, query, user.ID, user.PasswordHash, user.Status))
}

func findOne(row *sql.Row) (models.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FullName,
		&user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}
