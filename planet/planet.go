package planet

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransportKind identifies the transport a Planet's Name resolves
// over. Only UnixSocket is wired up; DomainName is reserved for a
// future multi-host variant and is rejected wherever it would be
// dialed.
type TransportKind uint32

const (
	UnixSocket TransportKind = iota
	DomainName
)

func (k TransportKind) String() string {
	switch k {
	case UnixSocket:
		return "unix-socket"
	case DomainName:
		return "domain-name"
	default:
		return fmt.Sprintf("transport-kind(%d)", uint32(k))
	}
}

// Planet is a registry entry: a transport kind plus a logical or
// canonical name. Names are used verbatim as the filename component
// of the socket path under the link directory.
type Planet struct {
	Kind TransportKind
	Name string
}

// New builds a Planet with the given logical name; Name is not
// canonicalized until Canonicalize or the registry does it on
// Register.
func New(name string, kind TransportKind) Planet {
	return Planet{Kind: kind, Name: name}
}

// IsUnixSocket reports whether this Planet resolves over a Unix
// socket, the only transport currently active.
func (p Planet) IsUnixSocket() bool {
	return p.Kind == UnixSocket
}

// Canonicalize rewrites p.Name to a canonical, registry-unique form:
// if the name contains no '/', it appends "/" + base64(unixSeconds +
// "-" + randUint32). Names that already contain '/' are left as-is,
// making re-registration with an already-canonical name idempotent.
func (p *Planet) Canonicalize() error {
	if strings.Contains(p.Name, "/") {
		return nil
	}
	suffix, err := randomSuffix()
	if err != nil {
		return fmt.Errorf("planet: canonicalize: %w", err)
	}
	p.Name = p.Name + "/" + suffix
	return nil
}

// randomSuffix generates the canonicalization suffix. The default is
// the spec's literal timestamp+rand scheme; setting
// KOSMOS_NAME_SUFFIX=uuid switches to a uuid-based suffix instead, for
// deployments that want collision odds a counter-observer can't infer
// a process start time from.
func randomSuffix() (string, error) {
	if os.Getenv("KOSMOS_NAME_SUFFIX") == "uuid" {
		return uuid.NewString(), nil
	}
	seconds := time.Now().Unix()
	r := rand.Uint32() //nolint:gosec // uniqueness, not secrecy; matches the original timestamp+rand scheme
	raw := fmt.Sprintf("%d-%d", seconds, r)
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

// MarshalBinary implements the fixed tagged/plain binary encoding
// used on the wire: TransportKind as u32-LE, Name as a length-
// prefixed string.
func (p Planet) MarshalBinary() ([]byte, error) {
	e := &encoder{}
	e.putUint32(uint32(p.Kind))
	e.putString(p.Name)
	return e.bytes(), nil
}

// UnmarshalBinary is the inverse of MarshalBinary.
func (p *Planet) UnmarshalBinary(data []byte) error {
	d := newDecoder(data)
	kind, err := d.getUint32()
	if err != nil {
		return fmt.Errorf("planet: decode kind: %w", err)
	}
	name, err := d.getString()
	if err != nil {
		return fmt.Errorf("planet: decode name: %w", err)
	}
	p.Kind = TransportKind(kind)
	p.Name = name
	return nil
}
