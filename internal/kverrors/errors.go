// Package kverrors defines the error taxonomy shared by the engine, pool,
// server and client layers.
//
// Go has no direct equivalent of the tagged-enum error type the store was
// originally built around, so each kind below is expressed as a sentinel
// value compared with errors.Is, a small struct type matched with
// errors.As, or a dynamic wrapper constructed with fmt.Errorf("%w", ...)
// around an underlying cause.
package kverrors

import (
	"errors"
	"fmt"
)

// Sentinel kinds that carry no payload beyond their own identity.
var (
	// ErrRecord marks a recovery-time integrity violation: a truncated or
	// torn record, or an active log whose on-disk size disagrees with the
	// persisted metadata.
	ErrRecord = errors.New("record error")

	// ErrUnknown is the defensive fallback for unreachable decode states,
	// e.g. an index entry pointing at a position that decodes to a Rm
	// record instead of the Set it was recorded against.
	ErrUnknown = errors.New("unknown error")
)

// KeyNotFoundError reports that remove targeted a key that is not
// currently bound.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("the key `%s` is not exist", e.Key)
}

// NewKeyNotFound builds a KeyNotFoundError for key.
func NewKeyNotFound(key string) error {
	return &KeyNotFoundError{Key: key}
}

// IsKeyNotFound reports whether err is (or wraps) a KeyNotFoundError.
func IsKeyNotFound(err error) bool {
	var target *KeyNotFoundError
	return errors.As(err, &target)
}

// ServerRespError is the client-side wrapper around a server response with
// is_ok=false; its text is the server's human-readable failure message.
type ServerRespError struct {
	Text string
}

func (e *ServerRespError) Error() string {
	return fmt.Sprintf("failed to exec command, server return error: `%s`", e.Text)
}

// NewServerResp builds a ServerRespError from response text.
func NewServerResp(text string) error {
	return &ServerRespError{Text: text}
}

// WrapIO tags err as an I/O failure surfaced from the underlying OS call.
// Returns nil if err is nil.
func WrapIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("io: %s: %w", op, err)
}

// WrapSerde tags err as a record encode/decode failure.
func WrapSerde(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("serde: %s: %w", op, err)
}

// WrapAltEngine tags err as a failure surfaced from the alternative
// embedded engine.
func WrapAltEngine(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("alt engine: %s: %w", op, err)
}

// WrapPoolBuild tags err as a worker-pool construction failure.
func WrapPoolBuild(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("pool build: %s: %w", op, err)
}

// WrapRecord tags err as a recovery-time integrity violation, joining it to
// ErrRecord so callers can errors.Is(err, kverrors.ErrRecord).
func WrapRecord(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrRecord, op, err)
}
