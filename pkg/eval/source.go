package eval

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

// Source hands out independent, reproducible random streams.
type Source struct {
	seed uint64
}

// NewSource returns a Source for seed. Seed 0 draws a seed from the runtime's
// entropy-seeded generator.
func NewSource(seed uint64) *Source {
	for seed == 0 {
		seed = rand.Uint64()
	}
	return &Source{seed: seed}
}

// Seed returns the effective seed
func (s *Source) Seed() uint64 {
	return s.seed
}

// Stream returns the PCG stream numbered id. Equal (seed, id) pairs produce
// equal sequences.
func (s *Source) Stream(id uint64) *rand.Rand {
	return rand.New(rand.NewPCG(s.seed, id))
}

// StreamID derives a stream number from a base id and a sub-stream index.
func StreamID(base uint64, index uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], base)
	binary.LittleEndian.PutUint64(buf[8:], index)
	return xxhash.Sum64(buf[:])
}
