package ids

import (
	"strconv"

	"github.com/google/uuid"
)

// Generator produces globally-unique identifiers for rows created without one
// (imported legacy records, biller-generated transactions).
type Generator interface {
	NewID() string
}

// UUID returns a Generator backed by random UUIDs.
func UUID() Generator {
	return uuidGenerator{}
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }

// Sequence is a Generator that yields prefix-1, prefix-2, ... in order.
// It exists for deterministic tests.
type Sequence struct {
	Prefix string
	n      int
}

func (s *Sequence) NewID() string {
	s.n++
	return s.Prefix + "-" + strconv.Itoa(s.n)
}
