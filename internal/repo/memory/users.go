package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/google/uuid"
)

// UsersRepo is a mutex-guarded in-memory store with the same semantics as
// the postgres repo, including the compare-and-swap reset consume. Used
// when no database is configured and by the router tests.
type UsersRepo struct {
	mu    sync.Mutex
	users map[string]user.User // keyed by id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		users: make(map[string]user.User),
	}
}

func (r *UsersRepo) Create(ctx context.Context, email, passwordHash, name string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) GetByValidResetToken(ctx context.Context, token string, now time.Time) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.findByValidToken(token, now)

	if !ok {
		return user.User{}, user.ErrResetTokenInvalid
	}

	return u, nil
}

func (r *UsersRepo) SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]

	if !ok {
		return user.ErrNotFound
	}

	exp := expiry.UTC()
	u.ResetToken = &token
	u.ResetExpiry = &exp
	u.UpdatedAt = time.Now().UTC()

	r.users[u.ID] = u

	return nil
}

func (r *UsersRepo) ConsumeResetToken(ctx context.Context, token, newPasswordHash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// re-check under the lock, same race rules as the conditional UPDATE
	u, ok := r.findByValidToken(token, now)

	if !ok {
		return user.ErrResetTokenInvalid
	}

	u.PasswordHash = newPasswordHash
	u.ResetToken = nil
	u.ResetExpiry = nil
	u.UpdatedAt = time.Now().UTC()

	r.users[u.ID] = u

	return nil
}

func (r *UsersRepo) findByValidToken(token string, now time.Time) (user.User, bool) {
	for _, u := range r.users {
		if u.ResetToken != nil && *u.ResetToken == token && u.ResetExpiry != nil && now.Before(*u.ResetExpiry) {
			return u, true
		}
	}

	return user.User{}, false
}
