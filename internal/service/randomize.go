package service

import (
	"math"
	"math/rand/v2"
)

// RandSource supplies the randomness used for altitude jitter.
// *rand.Rand satisfies it.
type RandSource interface {
	IntN(n int) int
	Float64() float64
}

// globalRand uses the goroutine-safe top-level math/rand/v2 generator.
type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// Randomize adds jitter to altitude so repeated lookups never share a value.
// With variance > 0 the result lies in [altitude-variance, altitude+variance+1),
// otherwise in [altitude, altitude+1). Variances too large for IntN are clamped.
func Randomize(altitude float64, variance int, rng RandSource) float64 {
	if rng == nil {
		rng = globalRand{}
	}

	fraction := round13(rng.Float64())
	if variance > maxVariance {
		variance = maxVariance
	}
	if variance > 0 {
		offset := rng.IntN(2*variance) - variance
		return altitude + float64(offset) + fraction
	}
	return altitude + fraction
}

const (
	maxFraction = 1 - 1e-13
	// 2*maxVariance must fit in an int.
	maxVariance = math.MaxInt / 2
)

// round13 rounds v to 13 decimal places, keeping values from [0, 1) below 1.
func round13(v float64) float64 {
	r := math.Round(v*1e13) / 1e13
	if r > maxFraction {
		return maxFraction
	}
	return r
}
