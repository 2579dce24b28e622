// SPDX-License-Identifier: GPL-3.0-or-later

package h1

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBufFillAndAdvance(t *testing.T) {
	rb := NewReadBuf(16)
	rb.SetInterest(InterestNeedMore)

	src := strings.NewReader("hello world")
	n, err := rb.FillRead(src)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, "hello world", string(rb.Unread()))

	rb.Advance(6)
	assert.Equal(t, "world", string(rb.Unread()))
	assert.Equal(t, 5, rb.Len())
}

func TestReadBufDisabledInterestSkipsFill(t *testing.T) {
	rb := NewReadBuf(16)
	rb.SetInterest(InterestDisabled)

	n, err := rb.FillRead(strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, rb.Len())
}

func TestReadBufCompactAfterAdvance(t *testing.T) {
	rb := NewReadBuf(4)
	rb.SetInterest(InterestNeedMore)
	_, err := rb.FillRead(strings.NewReader("abcdef"))
	require.NoError(t, err)
	rb.Advance(2)
	rb.Compact()
	assert.Equal(t, "cd", string(rb.Unread()))
}

func TestReadBufSplitRetainsChunkAcrossReuse(t *testing.T) {
	rb := NewReadBuf(16)
	rb.SetInterest(InterestNeedMore)
	_, err := rb.FillRead(strings.NewReader("0123456789"))
	require.NoError(t, err)

	chunk := rb.Split(4)
	assert.Equal(t, "0123", string(chunk.Bytes()))
	assert.Equal(t, 4, chunk.Len())
	assert.Equal(t, "456789", string(rb.Unread()))

	// Mutating the buf's backing store after split must not affect chunk.
	rb.Advance(rb.Len())
	assert.Equal(t, "0123", string(chunk.Bytes()))
}

func TestWriteBufAppendAndDrain(t *testing.T) {
	wb := NewWriteBuf()
	assert.True(t, wb.IsEmpty())
	assert.Equal(t, InterestDisabled, wb.Interest())

	wb.Append([]byte("HTTP/1.1 200 OK\r\n"))
	wb.Append([]byte("Content-Length: 5\r\n\r\n"))
	wb.Append([]byte("hello"))
	assert.False(t, wb.IsEmpty())
	assert.Equal(t, InterestReady, wb.Interest())

	var out bytes.Buffer
	n, err := wb.DrainWrite(&out)
	require.NoError(t, err)
	assert.Equal(t, wb.Pending(), 0)
	assert.True(t, wb.IsEmpty())
	assert.Equal(t, InterestDisabled, wb.Interest())
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello", out.String())
	assert.Equal(t, len("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"), n)
}

func TestWriteBufAppendEmptyIsNoop(t *testing.T) {
	wb := NewWriteBuf()
	wb.Append(nil)
	assert.True(t, wb.IsEmpty())
	assert.Equal(t, InterestDisabled, wb.Interest())
}

// partialWriter only accepts up to max bytes per call, to exercise the
// "drain doesn't finish in one call" path.
type partialWriter struct {
	max int
	buf bytes.Buffer
}

func (p *partialWriter) Write(b []byte) (int, error) {
	if len(b) > p.max {
		b = b[:p.max]
	}
	return p.buf.Write(b)
}

func TestWriteBufPartialDrainKeepsInterestReady(t *testing.T) {
	wb := NewWriteBuf()
	wb.Append([]byte("0123456789"))

	pw := &partialWriter{max: 4}
	n, err := wb.DrainWrite(pw)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.False(t, wb.IsEmpty())
	assert.Equal(t, 6, wb.Pending())
	assert.Equal(t, InterestReady, wb.Interest())
}
