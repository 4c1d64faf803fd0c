package bufpool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPutRoundTrip(t *testing.T) {
	buf := Get()
	buf.WriteString("hello")
	Put(buf)

	buf2 := Get()
	assert.Equal(t, 0, buf2.Len(), "pooled buffer must come back reset")
}

func TestOrderedWriterFlushesInSequence(t *testing.T) {
	var out bytes.Buffer
	ow := NewOrderedWriter(&out)

	_, err := ow.WriteAt([]byte("c"), 2)
	require.NoError(t, err)
	assert.Equal(t, "", out.String(), "out-of-order chunk must be held back")

	_, err = ow.WriteAt([]byte("b"), 1)
	require.NoError(t, err)
	assert.Equal(t, "", out.String())

	_, err = ow.WriteAt([]byte("a"), 0)
	require.NoError(t, err)
	assert.Equal(t, "abc", out.String())
}

func TestOrderedWriterFastPathWritesImmediately(t *testing.T) {
	var out bytes.Buffer
	ow := NewOrderedWriter(&out)

	_, err := ow.WriteAt([]byte("a"), 0)
	require.NoError(t, err)
	assert.Equal(t, "a", out.String())

	_, err = ow.WriteAt([]byte("b"), 1)
	require.NoError(t, err)
	assert.Equal(t, "ab", out.String())
}

func TestOrderedWriterDropsStaleResend(t *testing.T) {
	var out bytes.Buffer
	ow := NewOrderedWriter(&out)

	_, err := ow.WriteAt([]byte("a"), 0)
	require.NoError(t, err)

	_, err = ow.WriteAt([]byte("a-resend"), 0)
	require.NoError(t, err)
	assert.Equal(t, "a", out.String(), "a resend of an already-flushed sequence must be dropped, not buffered")
	assert.Equal(t, 0, ow.pending.Len(), "stale chunk must not sit in pending forever")
}
