package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMalformedInput, "rank %d", 3)

	assert.Equal(t, ErrCodeMalformedInput, err.Code)
	assert.Equal(t, "rank 3", err.Message)
	assert.Equal(t, "MALFORMED_INPUT: rank 3", err.Error())
}

func TestWrap(t *testing.T) {
	cause := errors.New("no such file")
	err := Wrap(ErrCodeFontNotFound, cause, "font %q", "arial.ttf")

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, `FONT_NOT_FOUND: font "arial.ttf": no such file`, err.Error())
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeInvalidParameter, "x"), ErrCodeInvalidParameter, true},
		{"different code", New(ErrCodeInvalidParameter, "x"), ErrCodeFontNotFound, false},
		{"wrapped by fmt", fmt.Errorf("outer: %w", New(ErrCodeCodecFailure, "x")), ErrCodeCodecFailure, true},
		{"plain error", errors.New("x"), ErrCodeCodecFailure, false},
		{"nil", nil, ErrCodeCodecFailure, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Is(tt.err, tt.code))
		})
	}
}

func TestGetCodeAndUserMessage(t *testing.T) {
	err := fmt.Errorf("ctx: %w", New(ErrCodeFilterFailure, "vivid"))
	assert.Equal(t, ErrCodeFilterFailure, GetCode(err))
	assert.Equal(t, "vivid", UserMessage(err))

	wrapped := Wrap(ErrCodeFileNotFound, errors.New("no such file"), "open %s", "a.png")
	assert.Equal(t, "open a.png: no such file", UserMessage(wrapped))

	plain := errors.New("plain")
	assert.Equal(t, Code(""), GetCode(plain))
	assert.Equal(t, "plain", UserMessage(plain))
}
