package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/authhub/internal/cache"
)

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory(time.Minute)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	c.Set(ctx, "k", []byte("v"))

	got, ok := c.Get(ctx, "k")

	if !ok {
		t.Fatalf("expected hit after set")
	}

	if string(got) != "v" {
		t.Fatalf("got %q, want %q", got, "v")
	}
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory(time.Minute)

	c.Set(ctx, "k", []byte("v"))
	c.Delete(ctx, "k")

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory(10 * time.Millisecond)

	c.Set(ctx, "k", []byte("v"))

	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}
