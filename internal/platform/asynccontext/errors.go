package asynccontext

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrUninitializedRead indicates a read happened while no store was bound.
	ErrUninitializedRead = errors.New("async context read outside of scope")

	// ErrUninitializedWrite indicates a write happened while no store was bound.
	ErrUninitializedWrite = errors.New("async context write outside of scope")
)

const guidance = "This usually happens when you don't initialize the context before trying to set a value.\n" +
	"Make sure you are using `runWithAsyncContext` to wrap your entry point."

// UninitializedReadError is handed to the registry's ErrorHook when a key is
// read with no store bound. It is never returned to the reader.
type UninitializedReadError struct {
	Registry string
	Key      string
}

// Error implements the error interface.
func (e *UninitializedReadError) Error() string {
	return fmt.Sprintf("AsyncLocalStorage \"%s\" store undefined when getting a value.\n\n%s\n\nKey: \t'%s'\n",
		e.Registry, guidance, e.Key)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UninitializedReadError) Unwrap() error {
	return ErrUninitializedRead
}

// UninitializedWriteError is returned by Set when no store is bound.
type UninitializedWriteError struct {
	Registry string
	Key      string
	Value    any
}

// Error implements the error interface.
func (e *UninitializedWriteError) Error() string {
	return fmt.Sprintf("AsyncLocalStorage \"%s\" store undefined when setting a new value.\n\n%s\n\nKey: \t'%s'\nValue: \t'%s'\n",
		e.Registry, guidance, e.Key, renderJSON(e.Value))
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UninitializedWriteError) Unwrap() error {
	return ErrUninitializedWrite
}

// IsUninitializedRead checks if an error is an uninitialized read error.
func IsUninitializedRead(err error) bool {
	return errors.Is(err, ErrUninitializedRead)
}

// IsUninitializedWrite checks if an error is an uninitialized write error.
func IsUninitializedWrite(err error) bool {
	return errors.Is(err, ErrUninitializedWrite)
}

// renderJSON renders v for diagnostics. Values json cannot encode (channels,
// funcs, cyclic pointers) produce a placeholder rather than an error.
// Markup characters are written as-is.
func renderJSON(v any) string {
	var buf strings.Builder

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("[unserializable %T: %v]", v, err)
	}

	return strings.TrimSuffix(buf.String(), "\n")
}
