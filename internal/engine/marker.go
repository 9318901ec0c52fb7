package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lskv/lskv/internal/kverrors"
)

// markerName is the one-line file naming which engine previously opened
// a given store directory (§3, §6.4). Ported from original_source's
// engines.rs get_engine_name/write_engine pair.
const markerName = "engine"

// ReadEngineMarker returns the engine name previously used to open dir,
// and false if no marker file exists yet (a brand-new directory).
func ReadEngineMarker(dir string) (name string, ok bool, err error) {
	data, err := os.ReadFile(filepath.Join(dir, markerName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, kverrors.WrapIO("read engine marker", err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// WriteEngineMarker records that dir is now owned by the named engine.
func WriteEngineMarker(dir, name string) error {
	if err := os.WriteFile(filepath.Join(dir, markerName), []byte(name), 0644); err != nil {
		return kverrors.WrapIO("write engine marker", err)
	}
	return nil
}

// CheckEngineMarker refuses to proceed if dir was previously opened by a
// different engine than wantName, matching §6.4's "server refuses to
// start if the marker disagrees" requirement. A missing marker is
// written as wantName and allowed through.
func CheckEngineMarker(dir, wantName string) error {
	existing, ok, err := ReadEngineMarker(dir)
	if err != nil {
		return err
	}
	if !ok {
		return WriteEngineMarker(dir, wantName)
	}
	if existing != wantName {
		return fmt.Errorf("store at %s was opened with engine %q, refusing to open with %q", dir, existing, wantName)
	}
	return nil
}
