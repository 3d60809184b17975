package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrRegistry,
		ErrConnect,
		ErrEmit,
		ErrAlreadyRunning,
		ErrSample,
		ErrServe,
		ErrSpawn,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "already running",
			code:       ErrAlreadyRunning,
			message:    "collector is already running (pid 4242)",
			suggestion: "Stop it first with 'hoststats collector --stop'",
		},
		{
			name:       "sample failure",
			code:       ErrSample,
			message:    "Failed to read CPU usage",
			suggestion: "",
		},
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "sleep_seconds must be at least 1",
			suggestion: "Edit config.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name        string
		err         *Error
		expected    []string
		notExpected []string
	}{
		{
			name:     "message and suggestion",
			err:      New(ErrConfig, "Invalid configuration", "Check config.yaml"),
			expected: []string{"✗ Invalid configuration", "Check config.yaml"},
		},
		{
			name:     "cause is rendered",
			err:      WrapWithCode(errors.New("connection refused"), ErrConnect, "Dashboard unreachable", ""),
			expected: []string{"Dashboard unreachable", "connection refused"},
		},
		{
			name:        "no suggestion",
			err:         New(ErrEmit, "Error sending stats", ""),
			expected:    []string{"Error sending stats"},
			notExpected: []string{"\n\n  \n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.err.Error()
			for _, part := range tt.expected {
				assert.Contains(t, output, part)
			}
			for _, part := range tt.notExpected {
				assert.NotContains(t, output, part)
			}
		})
	}
}

func TestWrapWithCode(t *testing.T) {
	cause := errors.New("file not found")
	wrapped := WrapWithCode(cause, ErrRegistry, "Failed to read pid file", "Check permissions")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrRegistry, wrapped.Code)
	assert.Equal(t, cause, wrapped.Unwrap())
	assert.True(t, errors.Is(wrapped, cause))
}

func TestIsCode(t *testing.T) {
	base := New(ErrAlreadyRunning, "dashboard is already running", "")
	wrapped := fmt.Errorf("start: %w", base)

	assert.True(t, IsCode(base, ErrAlreadyRunning))
	assert.True(t, IsCode(wrapped, ErrAlreadyRunning))
	assert.False(t, IsCode(wrapped, ErrConfig))
	assert.False(t, IsCode(nil, ErrConfig))
	assert.False(t, IsCode(errors.New("plain"), ErrConfig))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrSpawn, CodeOf(fmt.Errorf("x: %w", New(ErrSpawn, "boom", ""))))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.Equal(t, "", CodeOf(nil))
}
