// Package randutil derives reproducible rand/v2 generators from a
// single 64-bit seed, so call sites never hand-roll PCG seeding.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from one int64.
// The seed is expanded into the two words PCG wants with a splitmix64
// finalizer, so nearby seeds still produce unrelated streams.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// FromTime seeds from a wall-clock instant. Used where determinism is
// not wanted but an injected clock is available.
func FromTime(t time.Time) *rand.Rand {
	return New(t.UnixNano())
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
