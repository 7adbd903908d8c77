package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// Identity is the opaque, stable key of a container.
type Identity string

// IdentityGenerator hands out identities. Implementations must not return
// the same value twice. The engine only remembers identities issued since it
// was created or restored, so values retired before a restart are not
// rejected: reuse across restarts is ruled out by the generator alone, which
// holds for UUIDGenerator. A generator that keeps repeating itself is
// abandoned for random UUIDs.
type IdentityGenerator interface {
	Next() Identity
}

// IdentityGeneratorFunc adapts a function to IdentityGenerator.
type IdentityGeneratorFunc func() Identity

func (f IdentityGeneratorFunc) Next() Identity { return f() }

type uuidGenerator struct{}

func (uuidGenerator) Next() Identity { return Identity(uuid.NewString()) }

// UUIDGenerator returns random v4 UUID identities.
func UUIDGenerator() IdentityGenerator { return uuidGenerator{} }

// SequenceGenerator issues prefix-1, prefix-2, ... and is mostly useful for
// deterministic tests and replays.
type SequenceGenerator struct {
	Prefix string
	n      int
}

func (g *SequenceGenerator) Next() Identity {
	g.n++
	prefix := g.Prefix
	if prefix == "" {
		prefix = "c"
	}
	return Identity(fmt.Sprintf("%s-%d", prefix, g.n))
}
