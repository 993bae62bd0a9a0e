package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/JonMunkholm/catalogsvc/internal/store"
)

func TestResetAll(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	if _, err := mem.CreateCatalog(ctx, "Hardware"); err != nil {
		t.Fatalf("CreateCatalog() error = %v", err)
	}

	if err := ResetAll(ctx, mem, false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("ResetAll() without confirmation error = %v, want ErrNotConfirmed", err)
	}
	if _, err := mem.GetCatalog(ctx, 1); err != nil {
		t.Fatalf("catalog should survive an unconfirmed reset: %v", err)
	}

	if err := ResetAll(ctx, mem, true); err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}
	if _, err := mem.GetCatalog(ctx, 1); err == nil {
		t.Error("catalog should be gone after reset")
	}

	c, err := mem.CreateCatalog(ctx, "Again")
	if err != nil {
		t.Fatalf("CreateCatalog() error = %v", err)
	}
	if c.ID != 1 {
		t.Errorf("identity after reset = %d, want 1", c.ID)
	}
}

type failingResetter struct{}

func (failingResetter) Reset(context.Context) error { return errors.New("boom") }

func TestResetAll_Error(t *testing.T) {
	err := ResetAll(context.Background(), failingResetter{}, true)
	if err == nil || err.Error() != "reset store: boom" {
		t.Errorf("ResetAll() error = %v, want wrapped boom", err)
	}
}
