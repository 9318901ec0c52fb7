package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/lskv/lskv/internal/kverrors"
	"github.com/lskv/lskv/internal/record"
	"github.com/lskv/lskv/internal/storage"
)

// DefaultCompactThreshold is the number of uncompacted set/remove
// records appended since the last compaction that triggers another
// compaction pass (§4.2.2 step 5).
const DefaultCompactThreshold = 512

// LogPosition is a byte range [Start, Start+Len) within the active log
// where a live Set record lives.
type LogPosition struct {
	Start int64
	Len   int64
}

// KVEngine is the log-structured engine: an in-memory index over an
// append-only log file, serialized by a single mutex (§4.2.7). Copies of
// a *KVEngine pointer share the same underlying state, matching the
// "cheap to duplicate, shareable across workers" contract of §4.1.
type KVEngine struct {
	mu    sync.Mutex
	dir   string
	log   *storage.File
	index map[string]LogPosition

	curFileEnd       int64
	uncompactedCount uint64
	compactThreshold uint64
}

var _ Engine = (*KVEngine)(nil)

// Open opens or creates an LSKV store at dir, recovering its index from
// the active log as described in §4.2.1.
func Open(dir string) (*KVEngine, error) {
	return OpenWithThreshold(dir, DefaultCompactThreshold)
}

// OpenWithThreshold is Open with an explicit compaction threshold,
// mainly so tests can exercise compaction without writing 512 records.
func OpenWithThreshold(dir string, compactThreshold uint64) (*KVEngine, error) {
	meta, metaOK, err := loadMetadata(dir)
	if err != nil {
		return nil, err
	}

	logFile, err := storage.NewFile(dir)
	if err != nil {
		return nil, err
	}

	index, err := scanLog(logFile)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	if metaOK && meta.CurFileEnd != logFile.Size() {
		logFile.Close()
		return nil, kverrors.WrapRecord("open",
			fmt.Errorf("active log size %d does not match metadata cur_file_end %d (torn write or interrupted compaction)",
				logFile.Size(), meta.CurFileEnd))
	}

	uncompacted := uint64(0)
	if metaOK {
		uncompacted = meta.UncompactedCount
	}

	e := &KVEngine{
		dir:              dir,
		log:              logFile,
		index:            index,
		curFileEnd:       logFile.Size(),
		uncompactedCount: uncompacted,
		compactThreshold: compactThreshold,
	}

	if err := e.persistMetadataLocked(); err != nil {
		logFile.Close()
		return nil, err
	}

	slog.Info("engine: opened lskv store", "dir", dir, "keys", len(index), "size", e.curFileEnd)
	return e, nil
}

// scanLog rebuilds the key -> LogPosition index by decoding records from
// offset 0 to EOF (§4.2.5). A decode error before a clean EOF is a
// RecordError.
func scanLog(f *storage.File) (map[string]LogPosition, error) {
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	index := make(map[string]LogPosition)
	reader := record.NewReader(r)
	var prevOffset int64

	for {
		entry, err := reader.ReadEntry()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		postOffset := reader.Offset()
		key, _, isSet := entry.Value()
		if isSet {
			index[key] = LogPosition{Start: prevOffset, Len: postOffset - prevOffset}
		} else {
			delete(index, key)
		}
		prevOffset = postOffset
	}

	return index, nil
}

// Set implements Engine.
func (e *KVEngine) Set(key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry := record.NewSetEntry(key, value)
	data, err := entry.Encode()
	if err != nil {
		return err
	}

	offset, err := e.log.Append(data)
	if err != nil {
		return err
	}

	e.index[key] = LogPosition{Start: offset, Len: int64(len(data))}
	e.curFileEnd = e.log.Size()
	e.uncompactedCount++

	if err := e.persistMetadataLocked(); err != nil {
		return err
	}

	slog.Debug("engine: set", "key", key, "offset", offset, "size", len(data))

	if e.uncompactedCount > e.compactThreshold {
		return e.compactLocked()
	}
	return nil
}

// Get implements Engine.
func (e *KVEngine) Get(key string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.getLocked(key)
}

func (e *KVEngine) getLocked(key string) (string, bool, error) {
	pos, ok := e.index[key]
	if !ok {
		return "", false, nil
	}

	data, err := e.log.ReadAt(pos.Start, pos.Len)
	if err != nil {
		return "", false, err
	}

	var entry record.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false, kverrors.WrapSerde("decode indexed record", err)
	}

	_, value, isSet := entry.Value()
	if !isSet {
		// The index pointed at a position that no longer decodes to the
		// Set it was recorded against — an index/log desync (§9).
		return "", false, kverrors.ErrUnknown
	}
	return value, true, nil
}

// Remove implements Engine.
func (e *KVEngine) Remove(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.index[key]; !ok {
		return kverrors.NewKeyNotFound(key)
	}
	delete(e.index, key)

	entry := record.NewRmEntry(key)
	data, err := entry.Encode()
	if err != nil {
		return err
	}

	if _, err := e.log.Append(data); err != nil {
		return err
	}
	e.curFileEnd = e.log.Size()
	e.uncompactedCount++

	if err := e.persistMetadataLocked(); err != nil {
		return err
	}

	slog.Debug("engine: removed", "key", key)

	if e.uncompactedCount > e.compactThreshold {
		return e.compactLocked()
	}
	return nil
}

// Close implements Engine.
func (e *KVEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Close()
}

func (e *KVEngine) persistMetadataLocked() error {
	return saveMetadata(e.dir, Metadata{
		StorePath:        e.dir,
		CurFileEnd:       e.curFileEnd,
		UncompactedCount: e.uncompactedCount,
	})
}

// compactLocked rewrites the active log to hold one Set per live key, no
// Rm records (§4.2.6). Caller must hold e.mu.
func (e *KVEngine) compactLocked() error {
	newPath := filepath.Join(e.dir, "kvs_log_entry.new")
	bakPath := filepath.Join(e.dir, "kvs_log_entry.bak")
	activePath := e.log.Path()

	newFile, err := os.OpenFile(newPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return kverrors.WrapIO("create compaction buffer", err)
	}

	newIndex := make(map[string]LogPosition, len(e.index))
	var offset int64
	for key := range e.index {
		value, ok, err := e.getLocked(key)
		if err != nil {
			newFile.Close()
			os.Remove(newPath)
			return err
		}
		if !ok {
			continue
		}

		entry := record.NewSetEntry(key, value)
		data, err := entry.Encode()
		if err != nil {
			newFile.Close()
			os.Remove(newPath)
			return err
		}
		if _, err := newFile.Write(data); err != nil {
			newFile.Close()
			os.Remove(newPath)
			return kverrors.WrapIO("write compaction buffer", err)
		}

		newIndex[key] = LogPosition{Start: offset, Len: int64(len(data))}
		offset += int64(len(data))
	}

	if err := newFile.Sync(); err != nil {
		newFile.Close()
		return kverrors.WrapIO("sync compaction buffer", err)
	}
	if err := newFile.Close(); err != nil {
		return kverrors.WrapIO("close compaction buffer", err)
	}

	if err := e.log.Close(); err != nil {
		return kverrors.WrapIO("close active log before swap", err)
	}
	if err := os.Rename(activePath, bakPath); err != nil {
		return kverrors.WrapIO("stage active log as backup", err)
	}
	if err := os.Rename(newPath, activePath); err != nil {
		return kverrors.WrapIO("install compacted log", err)
	}
	if err := os.Remove(bakPath); err != nil {
		return kverrors.WrapIO("remove compaction backup", err)
	}

	reopened, err := storage.NewFile(e.dir)
	if err != nil {
		return err
	}

	e.log = reopened
	e.index = newIndex
	e.curFileEnd = reopened.Size()
	e.uncompactedCount = 0

	slog.Info("engine: compacted", "dir", e.dir, "keys", len(newIndex), "size", e.curFileEnd)
	return e.persistMetadataLocked()
}
