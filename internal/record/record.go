// Package record defines the self-delimiting tagged-union records shared
// by the wire protocol (client <-> server) and the on-disk log
// (kvs_log_entry). Both encodings are JSON: a record is a single object
// with exactly one of a fixed set of field names set, matching the
// reference implementation's serde-tagged enum.
package record

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lskv/lskv/internal/kverrors"
)

// SetPayload carries a key/value pair for a Set variant.
type SetPayload struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// KeyPayload carries just a key, used by Get and Rm variants.
type KeyPayload struct {
	Key string `json:"key"`
}

// Request is the wire request tagged union: exactly one field is non-nil.
type Request struct {
	Set *SetPayload `json:"Set,omitempty"`
	Get *KeyPayload `json:"Get,omitempty"`
	Rm  *KeyPayload `json:"Rm,omitempty"`
}

// NewSetRequest builds a Set request.
func NewSetRequest(key, value string) Request {
	return Request{Set: &SetPayload{Key: key, Value: value}}
}

// NewGetRequest builds a Get request.
func NewGetRequest(key string) Request {
	return Request{Get: &KeyPayload{Key: key}}
}

// NewRmRequest builds a Rm request.
func NewRmRequest(key string) Request {
	return Request{Rm: &KeyPayload{Key: key}}
}

// Response is the two-field wire response record.
type Response struct {
	IsOk bool   `json:"is_ok"`
	Data string `json:"data"`
}

// Entry is a log entry: a Set or a Rm, with no Get variant — the active
// log never records reads.
type Entry struct {
	Set *SetPayload `json:"Set,omitempty"`
	Rm  *KeyPayload `json:"Rm,omitempty"`
}

// NewSetEntry builds a Set log entry.
func NewSetEntry(key, value string) Entry {
	return Entry{Set: &SetPayload{Key: key, Value: value}}
}

// NewRmEntry builds a Rm log entry.
func NewRmEntry(key string) Entry {
	return Entry{Rm: &KeyPayload{Key: key}}
}

// Encode serializes e to its one-line JSON form. The returned bytes are a
// single self-delimiting record; encoding/json never emits embedded
// newlines for a compact object, so a stream of these is still
// unambiguous to a streaming decoder even without explicit separators.
func (e Entry) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, kverrors.WrapSerde("encode entry", err)
	}
	return data, nil
}

// Value returns the entry's key and, for a Set, its value. isSet reports
// whether this is a Set (true) or Rm (false) entry.
func (e Entry) Value() (key, value string, isSet bool) {
	if e.Set != nil {
		return e.Set.Key, e.Set.Value, true
	}
	if e.Rm != nil {
		return e.Rm.Key, "", false
	}
	return "", "", false
}

// Reader decodes a stream of concatenated JSON records, reporting the
// byte offset immediately after each one so callers can build a
// key -> (offset, length) index as they scan (required by the recovery
// scan in the LSKV engine).
type Reader struct {
	dec *json.Decoder
}

// NewReader wraps r for streaming record decoding.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(r)}
}

// Offset returns the byte offset the underlying decoder has consumed so
// far — the offset immediately after the most recently decoded record.
func (rd *Reader) Offset() int64 {
	return rd.dec.InputOffset()
}

// ReadEntry decodes the next log entry. Returns io.EOF when the stream is
// exhausted cleanly; any other error indicates a torn or malformed record.
func (rd *Reader) ReadEntry() (Entry, error) {
	var e Entry
	if err := rd.dec.Decode(&e); err != nil {
		if err == io.EOF {
			return Entry{}, io.EOF
		}
		return Entry{}, kverrors.WrapRecord("decode entry", err)
	}
	if e.Set == nil && e.Rm == nil {
		return Entry{}, kverrors.WrapRecord("decode entry", fmt.Errorf("neither Set nor Rm set"))
	}
	return e, nil
}

// ReadRequest decodes the next wire request from the stream.
func (rd *Reader) ReadRequest() (Request, error) {
	var req Request
	if err := rd.dec.Decode(&req); err != nil {
		if err == io.EOF {
			return Request{}, io.EOF
		}
		return Request{}, kverrors.WrapSerde("decode request", err)
	}
	return req, nil
}

// ReadResponse decodes the next wire response from the stream.
func (rd *Reader) ReadResponse() (Response, error) {
	var resp Response
	if err := rd.dec.Decode(&resp); err != nil {
		if err == io.EOF {
			return Response{}, io.EOF
		}
		return Response{}, kverrors.WrapSerde("decode response", err)
	}
	return resp, nil
}

// Encode serializes v (a Request or Response) to JSON bytes.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, kverrors.WrapSerde("encode", err)
	}
	return data, nil
}
