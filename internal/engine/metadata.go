package engine

import (
	"encoding/json"
	"os"

	"github.com/lskv/lskv/internal/kverrors"
)

// MetadataName is the file name of the store's persisted metadata.
const MetadataName = "kvs_metadata"

// Metadata is the small piece of state persisted alongside the log so a
// reopened store can detect a torn or truncated active log before
// trusting its recovery scan (§3, §4.2.1).
type Metadata struct {
	StorePath        string `json:"store_path"`
	CurFileEnd       int64  `json:"cur_file_end"`
	UncompactedCount uint64 `json:"uncompacted_count"`
}

func metadataPath(dir string) string {
	return dir + string(os.PathSeparator) + MetadataName
}

// loadMetadata reads and deserializes the metadata file. ok is false if
// the file does not exist or is empty (a fresh store).
func loadMetadata(dir string) (meta Metadata, ok bool, err error) {
	data, err := os.ReadFile(metadataPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, false, nil
		}
		return Metadata{}, false, kverrors.WrapIO("read metadata", err)
	}
	if len(data) == 0 {
		return Metadata{}, false, nil
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, false, kverrors.WrapSerde("decode metadata", err)
	}
	return meta, true, nil
}

// saveMetadata persists meta, creating the file if necessary.
func saveMetadata(dir string, meta Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return kverrors.WrapSerde("encode metadata", err)
	}
	if err := os.WriteFile(metadataPath(dir), data, 0644); err != nil {
		return kverrors.WrapIO("write metadata", err)
	}
	return nil
}
