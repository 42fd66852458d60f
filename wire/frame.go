// Package wire implements the mesh's length-prefixed binary framing:
// every message on a session is a u32-LE length followed by that many
// bytes of payload. A zero-length frame is the distinguished Exit
// sentinel that ends a session.
package wire

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/laxect/kosmos/internal/logging"
)

var log = logging.For("wire")

// DefaultDecodeDeadline bounds how long ReadFrame waits for a frame's
// payload once its length prefix has already been read.
const DefaultDecodeDeadline = 500 * time.Millisecond

// ErrShortLength is returned when the 4-byte length prefix can't be
// read in full; it is always fatal to the connection.
var ErrShortLength = errors.New("wire: short read on frame length")

// Status reports whether a session should continue or has been told
// to stop by the Exit sentinel.
type Status int

const (
	StatusContinue Status = iota
	StatusExit
)

func (s Status) IsExit() bool     { return s == StatusExit }
func (s Status) IsContinue() bool { return s == StatusContinue }

// WriteFrame writes one length-prefixed frame. An empty payload
// produces the Exit sentinel; callers that mean to send data should
// never pass a nil/empty payload for anything but Exit.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("wire: write length: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write payload: %w", err)
	}
	return nil
}

// WriteExit writes the four-byte [0,0,0,0] exit sentinel.
func WriteExit(w io.Writer) error {
	return WriteFrame(w, nil)
}

// ReadFrame reads exactly one frame: a 4-byte length, then that many
// payload bytes bounded by deadline. A zero length is reported as
// StatusExit without attempting to read a body, per the framing
// contract. A short read on the length prefix is always fatal.
func ReadFrame(ctx context.Context, r io.Reader, deadline time.Duration) ([]byte, Status, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, StatusExit, fmt.Errorf("%w: %s", ErrShortLength, err)
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	if length == 0 {
		log.Trace("received exit sentinel")
		return nil, StatusExit, nil
	}

	if deadline <= 0 {
		deadline = DefaultDecodeDeadline
	}
	type result struct {
		buf []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		buf := make([]byte, length)
		_, err := io.ReadFull(r, buf)
		done <- result{buf, err}
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()
	select {
	case res := <-done:
		if res.err != nil {
			return nil, StatusContinue, fmt.Errorf("wire: read payload: %w", res.err)
		}
		return res.buf, StatusContinue, nil
	case <-timer.C:
		return nil, StatusContinue, fmt.Errorf("wire: payload read timed out after %s", deadline)
	case <-ctx.Done():
		return nil, StatusContinue, ctx.Err()
	}
}
