package scoring

import (
	"math/rand/v2"
	"sync"
)

// Jitter supplies the bounded perturbation added to the blended score.
// Implementations must be safe for concurrent use.
type Jitter interface {
	// Offset returns a value in [-Amplitude, +Amplitude].
	Offset() float64
}

// NoJitter makes scoring fully deterministic.
type NoJitter struct{}

func (NoJitter) Offset() float64 { return 0 }

// SeededJitter draws uniform offsets from a PCG source. The same seed
// replays the same sequence of offsets.
type SeededJitter struct {
	mu        sync.Mutex
	rng       *rand.Rand
	amplitude float64
	seed      uint64
}

// NewSeededJitter returns a jitter source in [-amplitude, +amplitude].
func NewSeededJitter(seed uint64, amplitude float64) *SeededJitter {
	return &SeededJitter{
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		amplitude: amplitude,
		seed:      seed,
	}
}

func (j *SeededJitter) Offset() float64 {
	j.mu.Lock()
	u := j.rng.Float64()
	j.mu.Unlock()
	return (u*2 - 1) * j.amplitude
}

// Seed returns the seed the source was created with.
func (j *SeededJitter) Seed() uint64 { return j.seed }

// Deterministic reports whether j never perturbs scores.
func Deterministic(j Jitter) bool {
	switch v := j.(type) {
	case nil, NoJitter, *NoJitter:
		return true
	case *SeededJitter:
		return v.amplitude == 0
	default:
		return false
	}
}
