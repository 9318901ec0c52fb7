package client

import (
	"testing"

	"github.com/lskv/lskv/internal/engine"
	"github.com/lskv/lskv/internal/pool"
	"github.com/lskv/lskv/internal/server"
)

func startTestServer(t *testing.T) (addr string, stop func()) {
	t.Helper()

	dir := t.TempDir()
	eng, err := engine.Open(dir)
	if err != nil {
		t.Fatalf("engine.Open: %v", err)
	}

	workers, err := pool.NewSharedQueuePool(server.DefaultPoolSize)
	if err != nil {
		t.Fatalf("NewSharedQueuePool: %v", err)
	}

	srv := server.New("127.0.0.1:0", eng, workers)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go srv.Serve()

	return srv.Addr(), func() {
		srv.Close()
		eng.Close()
	}
}

func TestClient_IsKeyExist(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	c := New(addr)

	ok, err := c.IsKeyExist("a")
	if err != nil || ok {
		t.Fatalf("IsKeyExist(a) before Set = (%v, %v), want (false, nil)", ok, err)
	}

	if err := c.Set("a", "1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	ok, err = c.IsKeyExist("a")
	if err != nil || !ok {
		t.Fatalf("IsKeyExist(a) after Set = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestClient_GetEmptyValueVsAbsent(t *testing.T) {
	// Ambiguity noted in the design notes: an empty-string value and an
	// absent key both surface as ("", false)-shaped responses at the
	// is_ok=true layer, and the client treats resp.Data == "" as "absent",
	// so both cases report ("", false) (§4.6, §9).
	addr, stop := startTestServer(t)
	defer stop()

	c := New(addr)

	if err := c.Set("empty", ""); err != nil {
		t.Fatalf("Set(empty, \"\"): %v", err)
	}

	// Per §4.6/§9 this is indistinguishable from absence under the
	// current encoding — the client reports it as not found.
	v, ok, err := c.Get("empty")
	if err != nil || ok || v != "" {
		t.Fatalf("Get(empty) = (%q, %v, %v), want (\"\", false, nil) due to the documented ambiguity", v, ok, err)
	}
}
