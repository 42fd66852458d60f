package planet

import "fmt"

// RequestKind discriminates the registry-bound Request tagged union.
type RequestKind uint32

const (
	RequestResolve RequestKind = iota
	RequestRegister
	RequestPing
)

// Request is the registry-bound tagged union {Resolve(name) |
// Register(planet) | Ping(name)}. Only the fields relevant to Kind
// are populated; this mirrors the wire's discriminant-then-payload
// shape rather than modeling the union as a Go interface, since every
// variant here round-trips through a single fixed binary layout.
type Request struct {
	Kind   RequestKind
	Name   string // Resolve, Ping
	Planet Planet // Register
}

func ResolveRequest(name string) Request { return Request{Kind: RequestResolve, Name: name} }
func PingRequest(name string) Request    { return Request{Kind: RequestPing, Name: name} }
func RegisterRequest(p Planet) Request   { return Request{Kind: RequestRegister, Planet: p} }

func (r Request) MarshalBinary() ([]byte, error) {
	e := &encoder{}
	e.putUint32(uint32(r.Kind))
	switch r.Kind {
	case RequestResolve, RequestPing:
		e.putString(r.Name)
	case RequestRegister:
		body, err := r.Planet.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("planet: encode request planet: %w", err)
		}
		e.buf.Write(body)
	default:
		return nil, fmt.Errorf("planet: unknown request kind %d", r.Kind)
	}
	return e.bytes(), nil
}

func (r *Request) UnmarshalBinary(data []byte) error {
	d := newDecoder(data)
	kind, err := d.getUint32()
	if err != nil {
		return fmt.Errorf("planet: decode request kind: %w", err)
	}
	r.Kind = RequestKind(kind)
	switch r.Kind {
	case RequestResolve, RequestPing:
		name, err := d.getString()
		if err != nil {
			return fmt.Errorf("planet: decode request name: %w", err)
		}
		r.Name = name
	case RequestRegister:
		var p Planet
		if err := p.UnmarshalBinary(data[d.pos:]); err != nil {
			return fmt.Errorf("planet: decode request planet: %w", err)
		}
		r.Planet = p
	default:
		return fmt.Errorf("planet: unknown request kind %d", r.Kind)
	}
	return nil
}

// ResolveResponseKind discriminates ResolveResponse.
type ResolveResponseKind uint32

const (
	ResolveNotFound ResolveResponseKind = iota
	ResolveNotAvailable
	ResolveFound
)

// ResolveResponse answers a Resolve request.
type ResolveResponse struct {
	Kind   ResolveResponseKind
	Planet Planet // only set when Kind == ResolveFound
}

func NotFoundResponse() ResolveResponse      { return ResolveResponse{Kind: ResolveNotFound} }
func NotAvailableResponse() ResolveResponse  { return ResolveResponse{Kind: ResolveNotAvailable} }
func FoundResponse(p Planet) ResolveResponse { return ResolveResponse{Kind: ResolveFound, Planet: p} }

func (r ResolveResponse) MarshalBinary() ([]byte, error) {
	e := &encoder{}
	e.putUint32(uint32(r.Kind))
	if r.Kind == ResolveFound {
		body, err := r.Planet.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("planet: encode resolve response planet: %w", err)
		}
		e.buf.Write(body)
	}
	return e.bytes(), nil
}

func (r *ResolveResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder(data)
	kind, err := d.getUint32()
	if err != nil {
		return fmt.Errorf("planet: decode resolve response kind: %w", err)
	}
	r.Kind = ResolveResponseKind(kind)
	if r.Kind == ResolveFound {
		var p Planet
		if err := p.UnmarshalBinary(data[d.pos:]); err != nil {
			return fmt.Errorf("planet: decode resolve response planet: %w", err)
		}
		r.Planet = p
	}
	return nil
}

// RegisterResponseKind discriminates RegisterResponse.
type RegisterResponseKind uint32

const (
	RegisterSuccess RegisterResponseKind = iota
	RegisterFail
)

// RegisterResponse answers a Register request.
type RegisterResponse struct {
	Kind   RegisterResponseKind
	Name   string // canonical name, only set on Success
	Reason string // only set on Fail
}

func SuccessResponse(name string) RegisterResponse {
	return RegisterResponse{Kind: RegisterSuccess, Name: name}
}

func FailResponse(reason string) RegisterResponse {
	return RegisterResponse{Kind: RegisterFail, Reason: reason}
}

func (r RegisterResponse) MarshalBinary() ([]byte, error) {
	e := &encoder{}
	e.putUint32(uint32(r.Kind))
	switch r.Kind {
	case RegisterSuccess:
		e.putString(r.Name)
	case RegisterFail:
		e.putString(r.Reason)
	default:
		return nil, fmt.Errorf("planet: unknown register response kind %d", r.Kind)
	}
	return e.bytes(), nil
}

func (r *RegisterResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder(data)
	kind, err := d.getUint32()
	if err != nil {
		return fmt.Errorf("planet: decode register response kind: %w", err)
	}
	r.Kind = RegisterResponseKind(kind)
	switch r.Kind {
	case RegisterSuccess:
		name, err := d.getString()
		if err != nil {
			return fmt.Errorf("planet: decode register response name: %w", err)
		}
		r.Name = name
	case RegisterFail:
		reason, err := d.getString()
		if err != nil {
			return fmt.Errorf("planet: decode register response reason: %w", err)
		}
		r.Reason = reason
	default:
		return fmt.Errorf("planet: unknown register response kind %d", r.Kind)
	}
	return nil
}
