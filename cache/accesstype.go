package cache

import "fmt"

// AccessType defines the kind of memory reference that reaches the cache.
type AccessType int

// The access types a trace can carry. Only Write changes dirty state.
const (
	Read AccessType = iota
	Write
	InstructionFetch
)

// ParseAccessType converts the numeric encoding used in traces into an
// AccessType.
func ParseAccessType(v int) (AccessType, error) {
	t := AccessType(v)
	if !t.IsValid() {
		return 0, fmt.Errorf("invalid access type %d", v)
	}

	return t, nil
}

// IsValid checks if the access type is one of Read, Write, and
// InstructionFetch.
func (t AccessType) IsValid() bool {
	return t >= Read && t <= InstructionFetch
}

func (t AccessType) String() string {
	switch t {
	case Read:
		return "read"
	case Write:
		return "write"
	case InstructionFetch:
		return "ifetch"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// AccessReq is a single memory reference that is fed into a cache.
type AccessReq struct {
	Addr uint64
	Type AccessType
}
