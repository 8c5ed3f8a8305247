package gambler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTypedError(t *testing.T) {
	err := NewStatusError(403, errors.New("nope"))
	assert.Equal(t, Status, Classify(err))
}

func TestClassifyNetworkSubstring(t *testing.T) {
	assert.Equal(t, Network, Classify(errors.New("dial tcp: connection refused")))
	assert.Equal(t, Network, Classify(errors.New("read: i/o timeout")))
}

func TestClassifyStatusSubstring(t *testing.T) {
	assert.Equal(t, Status, Classify(errors.New("request rejected by server")))
}

func TestClassifyUnexpectedFallback(t *testing.T) {
	assert.Equal(t, Unexpected, Classify(errors.New("unexpected end of JSON input")))
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	wrapped := NewNetworkError(inner)
	assert.ErrorIs(t, wrapped, inner)
}
