package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacktogon/ringcam/internal/core/ports"
	"github.com/jacktogon/ringcam/internal/logger"
)

var _ ports.StatsCollector = (*Collector)(nil)

func createTestLogger() logger.StyledLogger {
	log, _, _ := logger.New(&logger.Config{Level: "error", Theme: "default"})
	return logger.NewPlainStyledLogger(log)
}

func TestCollector_RecordCapture(t *testing.T) {
	c := NewCollector(createTestLogger())
	assert.True(t, c.Snapshot().LastCapture.IsZero())

	c.RecordCapture(1000, false)
	c.RecordCapture(500, true)
	c.RecordAcquireFailure()
	c.RecordAllocationFailure()
	c.RecordAllocationFailure()

	s := c.Snapshot()
	assert.Equal(t, int64(2), s.FramesCaptured)
	assert.Equal(t, int64(1500), s.BytesCaptured)
	assert.Equal(t, int64(1), s.Evictions)
	assert.Equal(t, int64(1), s.AcquireFailures)
	assert.Equal(t, int64(2), s.AllocationFailures)
	assert.WithinDuration(t, time.Now(), s.LastCapture, time.Second)
}

func TestCollector_RecordBatch(t *testing.T) {
	c := NewCollector(createTestLogger())

	c.RecordBatch(10, 4096, 0)
	c.RecordBatch(0, 0, 0)
	c.RecordBatch(3, 900, 2)
	c.RecordRateLimited()

	s := c.Snapshot()
	assert.Equal(t, int64(3), s.BatchRequests)
	assert.Equal(t, int64(13), s.FramesServed)
	assert.Equal(t, int64(4996), s.BytesServed)
	assert.Equal(t, int64(2), s.EncodeFailures)
	assert.Equal(t, int64(1), s.RateLimited)
}

func TestCollector_Latency(t *testing.T) {
	c := NewCollector(createTestLogger())
	c.RecordCaptureLatency(2 * time.Millisecond)
	c.RecordBatchLatency(300 * time.Microsecond)

	s := c.Snapshot()
	assert.Equal(t, int64(1), s.CaptureLatency.Count)
	assert.Equal(t, int64(2000), s.CaptureLatency.P99)
	assert.Equal(t, int64(300), s.BatchLatency.P50)
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector(createTestLogger())

	const workers, perWorker = 8, 500
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				c.RecordCapture(10, j%2 == 0)
				c.RecordBatch(1, 10, 0)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	require.Equal(t, int64(workers*perWorker), s.FramesCaptured)
	assert.Equal(t, int64(workers*perWorker/2), s.Evictions)
	assert.Equal(t, int64(workers*perWorker*10), s.BytesServed)
}
