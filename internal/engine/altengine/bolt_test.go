package altengine

import (
	"testing"

	"github.com/lskv/lskv/internal/kverrors"
)

func TestBoltEngine_SetGetRemove(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	if err := e.Set("a", "1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := e.Get("a")
	if err != nil || !ok || v != "1" {
		t.Fatalf("Get(a) = (%q, %v, %v), want (1, true, nil)", v, ok, err)
	}

	if err := e.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := e.Get("a"); ok {
		t.Fatal("Get(a) after remove should report absent")
	}

	err = e.Remove("a")
	if !kverrors.IsKeyNotFound(err) {
		t.Fatalf("Remove(a) again = %v, want KeyNotFoundError", err)
	}
}

func TestBoltEngine_GetOnMissingKey(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	v, ok, err := e.Get("missing")
	if err != nil || ok || v != "" {
		t.Fatalf("Get(missing) = (%q, %v, %v), want (\"\", false, nil)", v, ok, err)
	}
}

func TestBoltEngine_ReopenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := e.Set("a", "1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	v, ok, err := reopened.Get("a")
	if err != nil || !ok || v != "1" {
		t.Fatalf("Get(a) after reopen = (%q, %v, %v), want (1, true, nil)", v, ok, err)
	}
}
