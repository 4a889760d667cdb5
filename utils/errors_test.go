package utils

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"www.velocidex.com/golang/procwatch/vtesting/assert"
)

func TestTransportErrorWrapping(t *testing.T) {
	err := NewTransportError("getInfo", io.ErrUnexpectedEOF)
	assert.True(t, IsTransportError(err))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "getInfo: transport failure: unexpected EOF", err.Error())

	// Wrapping twice keeps the innermost operation name.
	again := NewTransportError("listProcesses", err)
	assert.Equal(t, err, again)

	wrapped := fmt.Errorf("refresh: %w", err)
	assert.True(t, IsTransportError(wrapped))
	assert.False(t, IsConfigurationError(wrapped))
}

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("Backend.protocol", "corba", "unsupported protocol")
	assert.True(t, IsConfigurationError(err))
	assert.False(t, IsTransportError(err))
	assert.Equal(t,
		`configuration error: Backend.protocol "corba": unsupported protocol`,
		err.Error())
}

func TestInitError(t *testing.T) {
	err := &InitError{Backend: "local", Err: io.EOF}
	assert.True(t, IsInitError(err))
	assert.True(t, errors.Is(err, io.EOF))
}
