package planet

import (
	"context"
	"encoding"
	"fmt"
	"io"
	"time"

	"github.com/laxect/kosmos/wire"
)

// Send marshals v with the mesh's fixed binary encoding and writes it
// as one length-prefixed frame.
func Send(w io.Writer, v encoding.BinaryMarshaler) error {
	body, err := v.MarshalBinary()
	if err != nil {
		return fmt.Errorf("planet: marshal: %w", err)
	}
	if err := wire.WriteFrame(w, body); err != nil {
		return fmt.Errorf("planet: write frame: %w", err)
	}
	return nil
}

// Recv reads one frame and unmarshals it into out. If the frame was
// the Exit sentinel, out is left untouched and wire.StatusExit is
// returned.
func Recv(ctx context.Context, r io.Reader, deadline time.Duration, out encoding.BinaryUnmarshaler) (wire.Status, error) {
	body, status, err := wire.ReadFrame(ctx, r, deadline)
	if err != nil {
		return status, err
	}
	if status.IsExit() {
		return status, nil
	}
	if err := out.UnmarshalBinary(body); err != nil {
		return wire.StatusContinue, fmt.Errorf("planet: unmarshal: %w", err)
	}
	return status, nil
}
