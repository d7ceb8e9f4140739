package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Values returns n uniform values in [0, domain).
func (r *RNG) Values(n, domain int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, n)
	for i := range out {
		out[i] = r.rand.Intn(domain)
	}
	return out
}

// Indices returns n distinct sorted indices in [0, maxIndex).
// n is capped at maxIndex.
func (r *RNG) Indices(n, maxIndex int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n = min(n, maxIndex)
	seen := make(map[int]struct{}, n)
	out := make([]int, 0, n)
	for len(out) < n {
		i := r.rand.Intn(maxIndex)
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
// s=1.0 gives standard Zipf, s=1.5 gives heavy-tail (80/20 rule).
// Real classification data looks like this: a few codes cover most ids.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// ZipfValues generates n values in [0, domain) with a Zipfian distribution.
// The cumulative weights are computed once, so large n stays cheap.
func (r *RNG) ZipfValues(n, domain int, s float64) []int {
	cdf := make([]float64, max(domain, 1))
	var total float64
	for k := range cdf {
		total += 1.0 / math.Pow(float64(k+1), s)
		cdf[k] = total
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, n)
	for i := range out {
		v := sort.SearchFloat64s(cdf, r.rand.Float64()*total)
		out[i] = min(v, len(cdf)-1)
	}
	return out
}

// Assignments returns a random model with n slots set to non-zero values
// below domain, at distinct indices in [0, maxIndex).
func (r *RNG) Assignments(n, maxIndex, domain int) Model {
	indices := r.Indices(n, maxIndex)

	r.mu.Lock()
	defer r.mu.Unlock()

	m := make(Model, len(indices))
	for _, i := range indices {
		m[i] = 1 + r.rand.Intn(domain-1)
	}
	return m
}
