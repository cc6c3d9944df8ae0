package mem

// Kind distinguishes load and store requests.
type Kind uint8

// Request kinds.
const (
	KindLoad Kind = iota
	KindStore
)

func (k Kind) String() string {
	if k == KindLoad {
		return "LOAD"
	}
	return "STORE"
}

// Request is one in-flight memory operation. It is created when a lane
// executes LDR or STR, queued or placed on a channel by the
// controller, and resolved after the configured number of service
// passes. The issuing lane polls Done.
type Request struct {
	ID    uint64
	Kind  Kind
	Addr  uint8
	Value uint8 // store data

	// CoreID and Lane identify the issuer, for tracing.
	CoreID int
	Lane   int

	data      uint8 // load result
	done      bool
	remaining int // service passes left once on a channel
}

// Done reports whether the request has resolved.
func (r *Request) Done() bool {
	return r.done
}

// Data returns the load result. Valid only once Done is true.
func (r *Request) Data() uint8 {
	return r.data
}
