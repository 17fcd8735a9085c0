package asynccontext

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUninitializedWriteError_Message(t *testing.T) {
	err := &UninitializedWriteError{Registry: "request", Key: "correlationId", Value: "abc"}

	expected := "AsyncLocalStorage \"request\" store undefined when setting a new value.\n\n" +
		"This usually happens when you don't initialize the context before trying to set a value.\n" +
		"Make sure you are using `runWithAsyncContext` to wrap your entry point.\n\n" +
		"Key: \t'correlationId'\n" +
		"Value: \t'\"abc\"'\n"

	assert.Equal(t, expected, err.Error())
}

func TestUninitializedReadError_Message(t *testing.T) {
	err := &UninitializedReadError{Registry: "request", Key: "correlationId"}

	expected := "AsyncLocalStorage \"request\" store undefined when getting a value.\n\n" +
		"This usually happens when you don't initialize the context before trying to set a value.\n" +
		"Make sure you are using `runWithAsyncContext` to wrap your entry point.\n\n" +
		"Key: \t'correlationId'\n"

	assert.Equal(t, expected, err.Error())
	assert.NotContains(t, err.Error(), "Value:")
}

func TestRenderJSON(t *testing.T) {
	type payload struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "string", value: "Y", expected: `"Y"`},
		{name: "number", value: 42, expected: `42`},
		{name: "nil", value: nil, expected: `null`},
		{name: "struct", value: payload{ID: 1, Name: "n"}, expected: `{"id":1,"name":"n"}`},
		{name: "map", value: map[string]any{"a": true}, expected: `{"a":true}`},
		{name: "markup is not escaped", value: "<a&b>", expected: `"<a&b>"`},
		{name: "nested markup", value: map[string]string{"html": "<p>"}, expected: `{"html":"<p>"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderJSON(tt.value))
		})
	}
}

func TestRenderJSON_Unserializable(t *testing.T) {
	got := renderJSON(make(chan int))
	assert.Contains(t, got, "[unserializable chan int:")

	err := &UninitializedWriteError{Registry: "r", Key: "fn", Value: func() {}}
	assert.NotPanics(t, func() { _ = err.Error() })
	assert.Contains(t, err.Error(), "[unserializable func():")
}

func TestUninitializedWriteError_MarkupValue(t *testing.T) {
	r := NewRegistry("markup", nil, nil)

	err := r.Accessor().Set(context.Background(), "k", "<a&b>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Value: \t'\"<a&b>\"'\n")
	assert.NotContains(t, err.Error(), `\u003c`)
}

func TestErrorsUnwrapToSentinels(t *testing.T) {
	var readErr error = &UninitializedReadError{Registry: "r", Key: "k"}
	var writeErr error = &UninitializedWriteError{Registry: "r", Key: "k"}

	assert.True(t, errors.Is(readErr, ErrUninitializedRead))
	assert.False(t, errors.Is(readErr, ErrUninitializedWrite))
	assert.True(t, errors.Is(writeErr, ErrUninitializedWrite))
	assert.False(t, IsUninitializedRead(writeErr))
}
