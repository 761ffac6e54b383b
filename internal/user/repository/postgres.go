package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"user-enrollment/backend/internal/user/domain"
)

const uniqueViolation = "23505"

const userColumns = `id, first_name, last_name, login, email, phone, salt, password_hash, meta, created_at, updated_at`

type PostgresRepository struct {
	db    *sql.DB
	creds domain.Credentials
}

// NewPostgresRepository returns a user repository backed by db. creds is bound to every
// user it loads.
func NewPostgresRepository(db *sql.DB, creds domain.Credentials) *PostgresRepository {
	return &PostgresRepository{db: db, creds: creds}
}

// GetByID returns the user for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByLogin returns the user for the lower-cased login, or nil if not found.
func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE login = $1`, strings.ToLower(login))
}

// Create inserts u. A login collision returns ErrDuplicateLogin.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	rec := u.Record()
	meta, err := json.Marshal(rec.Meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.FirstName, nullString(rec.LastName), rec.Login, nullString(rec.Email), nullString(rec.Phone),
		rec.Salt, rec.PasswordHash, meta, rec.CreatedAt, rec.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateLogin
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// UpdateCredentials writes salt, password_hash and updated_at. A missing row is not an error.
func (r *PostgresRepository) UpdateCredentials(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET salt = $2, password_hash = $3, updated_at = $4 WHERE id = $1`,
		u.ID(), u.Salt(), u.PasswordHash(), u.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		rec                    domain.Record
		lastName, email, phone sql.NullString
		meta                   []byte
		createdAt, updatedAt   time.Time
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&rec.ID, &rec.FirstName, &lastName, &rec.Login, &email, &phone,
		&rec.Salt, &rec.PasswordHash, &meta, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	rec.LastName = lastName.String
	rec.Email = email.String
	rec.Phone = phone.String
	rec.CreatedAt = createdAt.UTC()
	rec.UpdatedAt = updatedAt.UTC()
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &rec.Meta); err != nil {
			return nil, fmt.Errorf("decode meta: %w", err)
		}
	}
	return domain.Restore(r.creds, rec)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
