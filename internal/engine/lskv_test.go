package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/lskv/lskv/internal/kverrors"
)

func TestOpen_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer e.Close()

	if _, err := os.Stat(filepath.Join(dir, MetadataName)); err != nil {
		t.Errorf("Open() should create %s: %v", MetadataName, err)
	}

	_, ok, err := e.Get("missing")
	if err != nil || ok {
		t.Errorf("Get() on empty store = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestSetGetRemove(t *testing.T) {
	// S1/S2 from spec.md §8.
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	defer e.Close()

	if err := e.Set("a", "1"); err != nil {
		t.Fatalf("Set(a,1): %v", err)
	}
	if v, ok, err := e.Get("a"); err != nil || !ok || v != "1" {
		t.Fatalf("Get(a) = (%q, %v, %v), want (1, true, nil)", v, ok, err)
	}

	if err := e.Set("a", "2"); err != nil {
		t.Fatalf("Set(a,2): %v", err)
	}
	if v, ok, _ := e.Get("a"); !ok || v != "2" {
		t.Fatalf("Get(a) after overwrite = (%q, %v), want (2, true)", v, ok)
	}

	if err := e.Remove("a"); err != nil {
		t.Fatalf("Remove(a): %v", err)
	}
	if _, ok, _ := e.Get("a"); ok {
		t.Fatal("Get(a) after remove should be absent")
	}

	err = e.Remove("a")
	if !kverrors.IsKeyNotFound(err) {
		t.Fatalf("Remove(a) again = %v, want KeyNotFoundError", err)
	}
}

func TestReopenRoundTrip(t *testing.T) {
	// S1 reopen, and quantified property 2 (round-trip durability).
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open(): %v", err)
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

func TestEmptyKeyAndValueAreLegal(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	defer e.Close()

	if err := e.Set("", ""); err != nil {
		t.Fatalf("Set(\"\",\"\"): %v", err)
	}
	v, ok, err := e.Get("")
	if err != nil || !ok || v != "" {
		t.Fatalf("Get(\"\") = (%q, %v, %v), want (\"\", true, nil)", v, ok, err)
	}
}

func TestLargeValue(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	defer e.Close()

	big := make([]byte, 1<<20) // 1 MiB
	for i := range big {
		big[i] = byte('a' + i%26)
	}
	if err := e.Set("big", string(big)); err != nil {
		t.Fatalf("Set(big): %v", err)
	}
	v, ok, err := e.Get("big")
	if err != nil || !ok || v != string(big) {
		t.Fatalf("Get(big) round-trip mismatch (ok=%v err=%v)", ok, err)
	}
}

func TestRemoveUnboundKeyDoesNotAppend(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	defer e.Close()

	sizeBefore := e.log.Size()
	if err := e.Remove("nope"); !kverrors.IsKeyNotFound(err) {
		t.Fatalf("Remove(nope) = %v, want KeyNotFoundError", err)
	}
	if e.log.Size() != sizeBefore {
		t.Errorf("Remove on unbound key appended to the log: size %d -> %d", sizeBefore, e.log.Size())
	}
}

func TestOpenWithSizeMismatchIsRecordError(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	if err := e.Set("a", "1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Truncate the log so its size disagrees with persisted metadata.
	logPath := filepath.Join(dir, "kvs_log_entry")
	if err := os.Truncate(logPath, 1); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	if _, err := Open(dir); !errors.Is(err, kverrors.ErrRecord) {
		t.Fatalf("Open() after truncation = %v, want RecordError", err)
	}
}

func TestCompactionReclaimsSpaceAndPreservesValues(t *testing.T) {
	// S3 / quantified properties 4 and 5.
	dir := t.TempDir()
	e, err := OpenWithThreshold(dir, 8)
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	defer e.Close()

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("k%d", i)
		if err := e.Set(key, fmt.Sprintf("v%d", i)); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}
	sizeAfterFirstPass := e.log.Size()
	// Overwrite every key once more so a naive log would be 2x this size;
	// compaction should have kept the log near 100 live records.
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("k%d", i)
		if err := e.Set(key, fmt.Sprintf("v%d-b", i)); err != nil {
			t.Fatalf("Set(%s) overwrite: %v", key, err)
		}
	}
	if got := e.log.Size(); got >= 2*sizeAfterFirstPass {
		t.Errorf("log size after overwrite pass = %d, want < %d (compaction should reclaim space)", got, 2*sizeAfterFirstPass)
	}

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("k%d", i)
		want := fmt.Sprintf("v%d-b", i)
		v, ok, err := e.Get(key)
		if err != nil || !ok || v != want {
			t.Fatalf("Get(%s) = (%q, %v, %v), want (%q, true, nil)", key, v, ok, err, want)
		}
	}

	if len(e.index) != 100 {
		t.Errorf("index has %d entries after compaction, want 100", len(e.index))
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen after compaction: %v", err)
	}
	defer reopened.Close()
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("k%d", i)
		want := fmt.Sprintf("v%d-b", i)
		if v, ok, _ := reopened.Get(key); !ok || v != want {
			t.Errorf("Get(%s) after reopen = %q, want %q", key, v, want)
		}
	}
}

func TestConcurrentSetsToDistinctKeys(t *testing.T) {
	// Quantified property 6: K workers to K distinct keys, then a barrier
	// and Get on each.
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	defer e.Close()

	const workers = 16
	done := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			key := fmt.Sprintf("key-%d", i)
			val := fmt.Sprintf("val-%d", i)
			done <- e.Set(key, val)
		}(i)
	}
	for i := 0; i < workers; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent Set failed: %v", err)
		}
	}

	for i := 0; i < workers; i++ {
		key := fmt.Sprintf("key-%d", i)
		want := fmt.Sprintf("val-%d", i)
		if v, ok, _ := e.Get(key); !ok || v != want {
			t.Errorf("Get(%s) = %q, want %q", key, v, want)
		}
	}
}
