package planet

import (
	"encoding/binary"
	"fmt"
)

// Pong is the trivial acknowledgement a Ping request gets back; Ping
// has no positive response beyond the session continuing cleanly, so
// this only exists to give the server something non-empty to write
// (an empty frame would be read back as the exit sentinel).
type Pong uint32

func (p Pong) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(p))
	return buf, nil
}

func (p *Pong) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("planet: truncated pong")
	}
	*p = Pong(binary.LittleEndian.Uint32(data))
	return nil
}

// Ask is a command issued directly to a node.
type Ask struct {
	Body string
}

func NewAsk(body string) Ask { return Ask{Body: body} }

func (a Ask) MarshalBinary() ([]byte, error) {
	e := &encoder{}
	e.putString(a.Body)
	return e.bytes(), nil
}

func (a *Ask) UnmarshalBinary(data []byte) error {
	d := newDecoder(data)
	body, err := d.getString()
	if err != nil {
		return fmt.Errorf("planet: decode ask: %w", err)
	}
	a.Body = body
	return nil
}

// Post is a notification destined for the chat bridge: a message body
// and the name of the node that produced it.
type Post struct {
	Msg        string
	OriginNode string
}

func NewPost(msg, originNode string) Post {
	return Post{Msg: msg, OriginNode: originNode}
}

func (p Post) MarshalBinary() ([]byte, error) {
	e := &encoder{}
	e.putString(p.Msg)
	e.putString(p.OriginNode)
	return e.bytes(), nil
}

func (p *Post) UnmarshalBinary(data []byte) error {
	d := newDecoder(data)
	msg, err := d.getString()
	if err != nil {
		return fmt.Errorf("planet: decode post msg: %w", err)
	}
	origin, err := d.getString()
	if err != nil {
		return fmt.Errorf("planet: decode post origin: %w", err)
	}
	p.Msg = msg
	p.OriginNode = origin
	return nil
}
