package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/geocoder89/authhub/internal/repo/memory"
)

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	created, err := repo.Create(ctx, "mo@example.com", "hash-1", "Mo")

	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if created.ID == "" {
		t.Fatalf("expected generated id")
	}

	byEmail, err := repo.GetByEmail(ctx, "mo@example.com")

	if err != nil {
		t.Fatalf("get by email failed: %v", err)
	}

	if byEmail.ID != created.ID {
		t.Fatalf("got id %q, want %q", byEmail.ID, created.ID)
	}

	byID, err := repo.GetByID(ctx, created.ID)

	if err != nil {
		t.Fatalf("get by id failed: %v", err)
	}

	if byID.Email != "mo@example.com" {
		t.Fatalf("got email %q", byID.Email)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	if _, err := repo.Create(ctx, "mo@example.com", "hash-1", "Mo"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err := repo.Create(ctx, "mo@example.com", "hash-2", "Other Mo")

	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	if _, err := repo.GetByID(ctx, "no-such-id"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestResetTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()
	now := time.Now()

	created, err := repo.Create(ctx, "mo@example.com", "hash-1", "Mo")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.SetResetToken(ctx, created.ID, "tok-abc", now.Add(time.Hour)); err != nil {
		t.Fatalf("set reset token failed: %v", err)
	}

	found, err := repo.GetByValidResetToken(ctx, "tok-abc", now)

	if err != nil {
		t.Fatalf("lookup by valid token failed: %v", err)
	}

	if found.ID != created.ID {
		t.Fatalf("got id %q, want %q", found.ID, created.ID)
	}

	if err := repo.ConsumeResetToken(ctx, "tok-abc", "hash-2", now); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	// token is single use
	err = repo.ConsumeResetToken(ctx, "tok-abc", "hash-3", now)

	if !errors.Is(err, user.ErrResetTokenInvalid) {
		t.Fatalf("second consume: got %v, want ErrResetTokenInvalid", err)
	}

	after, err := repo.GetByID(ctx, created.ID)

	if err != nil {
		t.Fatalf("get after consume failed: %v", err)
	}

	if after.PasswordHash != "hash-2" {
		t.Fatalf("got hash %q, want hash-2", after.PasswordHash)
	}

	if after.ResetToken != nil || after.ResetExpiry != nil {
		t.Fatalf("expected reset fields cleared after consume")
	}
}

func TestExpiredResetTokenRejected(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()
	now := time.Now()

	created, err := repo.Create(ctx, "mo@example.com", "hash-1", "Mo")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.SetResetToken(ctx, created.ID, "tok-abc", now.Add(-time.Minute)); err != nil {
		t.Fatalf("set reset token failed: %v", err)
	}

	if _, err := repo.GetByValidResetToken(ctx, "tok-abc", now); !errors.Is(err, user.ErrResetTokenInvalid) {
		t.Fatalf("lookup: got %v, want ErrResetTokenInvalid", err)
	}

	if err := repo.ConsumeResetToken(ctx, "tok-abc", "hash-2", now); !errors.Is(err, user.ErrResetTokenInvalid) {
		t.Fatalf("consume: got %v, want ErrResetTokenInvalid", err)
	}

	// expired token must not change the password
	after, _ := repo.GetByID(ctx, created.ID)

	if after.PasswordHash != "hash-1" {
		t.Fatalf("password changed through an expired token")
	}
}

func TestNewResetTokenReplacesOld(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()
	now := time.Now()

	created, err := repo.Create(ctx, "mo@example.com", "hash-1", "Mo")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.SetResetToken(ctx, created.ID, "tok-old", now.Add(time.Hour)); err != nil {
		t.Fatalf("set reset token failed: %v", err)
	}

	if err := repo.SetResetToken(ctx, created.ID, "tok-new", now.Add(time.Hour)); err != nil {
		t.Fatalf("second set reset token failed: %v", err)
	}

	if _, err := repo.GetByValidResetToken(ctx, "tok-old", now); !errors.Is(err, user.ErrResetTokenInvalid) {
		t.Fatalf("old token should be gone, got %v", err)
	}

	if _, err := repo.GetByValidResetToken(ctx, "tok-new", now); err != nil {
		t.Fatalf("new token should be valid: %v", err)
	}
}
