package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReservoirSampler(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		rs := NewReservoirSampler(10)
		for i := int64(1); i <= 20; i++ {
			rs.Add(i * 10)
		}

		assert.Equal(t, int64(20), rs.Count())
		p50, p95, p99 := rs.Percentiles()
		assert.NotZero(t, p50)
		assert.LessOrEqual(t, p50, p95)
		assert.LessOrEqual(t, p95, p99)
	})

	t.Run("empty", func(t *testing.T) {
		p50, p95, p99 := NewReservoirSampler(10).Percentiles()
		assert.Zero(t, p50)
		assert.Zero(t, p95)
		assert.Zero(t, p99)
	})

	t.Run("single value", func(t *testing.T) {
		rs := NewReservoirSampler(10)
		rs.Add(100)
		p50, p95, p99 := rs.Percentiles()
		assert.Equal(t, []int64{100, 100, 100}, []int64{p50, p95, p99})
	})

	t.Run("exact when under sample size", func(t *testing.T) {
		rs := NewReservoirSampler(100)
		for i := int64(100); i >= 1; i-- {
			rs.Add(i)
		}
		p50, p95, p99 := rs.Percentiles()
		assert.Equal(t, int64(51), p50)
		assert.Equal(t, int64(96), p95)
		assert.Equal(t, int64(100), p99)
	})

	t.Run("reset", func(t *testing.T) {
		rs := NewReservoirSampler(10)
		for i := 0; i < 100; i++ {
			rs.Add(int64(i))
		}
		rs.Reset()

		assert.Zero(t, rs.Count())
		p50, _, _ := rs.Percentiles()
		assert.Zero(t, p50)
	})

	t.Run("default size", func(t *testing.T) {
		rs := NewReservoirSampler(0)
		assert.Equal(t, DefaultSampleSize, rs.sampleSize)
	})
}
