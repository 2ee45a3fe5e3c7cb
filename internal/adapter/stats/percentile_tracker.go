package stats

import (
	"math/rand/v2"
	"slices"
	"sync"
)

const DefaultSampleSize = 200

// ReservoirSampler keeps a bounded uniform sample of values so percentiles
// stay cheap no matter how long the daemon runs
type ReservoirSampler struct {
	samples    []int64
	sampleSize int
	count      int64
	mu         sync.Mutex
}

func NewReservoirSampler(sampleSize int) *ReservoirSampler {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &ReservoirSampler{
		sampleSize: sampleSize,
		samples:    make([]int64, 0, sampleSize),
	}
}

func (rs *ReservoirSampler) Add(value int64) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.count++
	if len(rs.samples) < rs.sampleSize {
		rs.samples = append(rs.samples, value)
		return
	}

	// each value ends up in the reservoir with equal probability
	j := rand.Int64N(rs.count) //nolint:gosec // sampling does not need crypto rand
	if j < int64(rs.sampleSize) {
		rs.samples[j] = value
	}
}

// Percentiles returns p50, p95 and p99 of the current sample
func (rs *ReservoirSampler) Percentiles() (p50, p95, p99 int64) {
	rs.mu.Lock()
	sorted := slices.Clone(rs.samples)
	rs.mu.Unlock()

	if len(sorted) == 0 {
		return 0, 0, 0
	}
	slices.Sort(sorted)

	at := func(pct int) int64 {
		idx := len(sorted) * pct / 100
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		return sorted[idx]
	}
	return at(50), at(95), at(99)
}

func (rs *ReservoirSampler) Count() int64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.count
}

func (rs *ReservoirSampler) Reset() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.samples = rs.samples[:0]
	rs.count = 0
}
