package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/geocoder89/authhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, password_hash, name, reset_token, reset_token_expiry, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func (r *UsersRepo) Create(ctx context.Context, email, passwordHash, name string) (user.User, error) {
	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.prom.ObserveDB("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, name, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			`,
			u.ID, u.Email, u.PasswordHash, u.Name, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email",
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id",
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByValidResetToken matches the token AND an expiry strictly in the
// future; expired tokens behave exactly like unknown ones.
func (r *UsersRepo) GetByValidResetToken(ctx context.Context, token string, now time.Time) (user.User, error) {
	u, err := r.getOne(ctx, "users.get_by_reset_token",
		`SELECT `+userColumns+` FROM users WHERE reset_token = $1 AND reset_token_expiry > $2`,
		token, now.UTC())

	if errors.Is(err, user.ErrNotFound) {
		return user.User{}, user.ErrResetTokenInvalid
	}

	return u, err
}

// SetResetToken puts the user into the PENDING reset state. A newer
// request simply overwrites any previous pending token.
func (r *UsersRepo) SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error {
	return r.prom.ObserveDB("users.set_reset_token", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE users
			SET reset_token = $2, reset_token_expiry = $3, updated_at = NOW()
			WHERE id = $1
		`, userID, token, expiry.UTC())

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}

		return nil
	})
}

// ConsumeResetToken swaps in the new password hash and clears both reset
// fields in a single conditional UPDATE. The WHERE clause re-checks the
// token and expiry, so a concurrent consume of the same token loses the
// race and gets ErrResetTokenInvalid instead of silently double-applying.
func (r *UsersRepo) ConsumeResetToken(ctx context.Context, token, newPasswordHash string, now time.Time) error {
	return r.prom.ObserveDB("users.consume_reset_token", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE users
			SET password_hash = $2, reset_token = NULL, reset_token_expiry = NULL, updated_at = NOW()
			WHERE reset_token = $1 AND reset_token_expiry > $3
		`, token, newPasswordHash, now.UTC())

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return user.ErrResetTokenInvalid
		}

		return nil
	})
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, args ...any) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB(op, func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(
			&u.ID,
			&u.Email,
			&u.PasswordHash,
			&u.Name,
			&u.ResetToken,
			&u.ResetExpiry,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}
