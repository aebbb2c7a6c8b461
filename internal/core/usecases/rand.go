package usecases

import "math/rand/v2"

// SystemRand is the production RandSource, backed by math/rand/v2.
// Tests substitute a fixed-value source instead.
type SystemRand struct{}

func (SystemRand) Float64() float64 {
	return rand.Float64()
}
