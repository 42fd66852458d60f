package wire

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello kosmos")
	require.NoError(t, WriteFrame(&buf, payload))

	got, status, err := ReadFrame(context.Background(), &buf, time.Second)
	require.NoError(t, err)
	assert.True(t, status.IsContinue())
	assert.Equal(t, payload, got)
}

func TestWriteExitIsZeroLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExit(&buf))
	assert.Equal(t, []byte{0, 0, 0, 0}, buf.Bytes())

	got, status, err := ReadFrame(context.Background(), &buf, time.Second)
	require.NoError(t, err)
	assert.True(t, status.IsExit())
	assert.Nil(t, got)
}

func TestReadFrameShortLengthIsFatal(t *testing.T) {
	buf := bytes.NewBuffer([]byte{1, 2})
	_, _, err := ReadFrame(context.Background(), buf, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShortLength)
}

func TestReadFrameDeadlineExceeded(t *testing.T) {
	r, w := newBlockingPipe(t)
	defer w.Close()

	var lenBuf [4]byte
	lenBuf[0] = 10 // announce 10 bytes, never send them
	go func() { _, _ = w.Write(lenBuf[:]) }()

	_, _, err := ReadFrame(context.Background(), r, 50*time.Millisecond)
	require.Error(t, err)
}

func TestReadFrameContextCancelled(t *testing.T) {
	r, w := newBlockingPipe(t)
	defer w.Close()

	var lenBuf [4]byte
	lenBuf[0] = 10
	go func() { _, _ = w.Write(lenBuf[:]) }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := ReadFrame(ctx, r, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// newBlockingPipe returns a reader/writer pair over an in-memory pipe,
// letting a test write a length prefix without ever supplying a body.
func newBlockingPipe(t *testing.T) (*pipeReader, *pipeWriter) {
	t.Helper()
	ch := make(chan []byte, 8)
	return &pipeReader{ch: ch}, &pipeWriter{ch: ch}
}

type pipeReader struct {
	ch  chan []byte
	buf []byte
}

func (p *pipeReader) Read(out []byte) (int, error) {
	for len(p.buf) == 0 {
		p.buf = <-p.ch
	}
	n := copy(out, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}

type pipeWriter struct {
	ch     chan []byte
	closed bool
}

func (p *pipeWriter) Write(b []byte) (int, error) {
	cp := append([]byte(nil), b...)
	p.ch <- cp
	return len(b), nil
}

func (p *pipeWriter) Close() error {
	p.closed = true
	return nil
}
