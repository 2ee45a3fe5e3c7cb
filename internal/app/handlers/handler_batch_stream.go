package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jacktogon/ringcam/internal/app/middleware"
	"github.com/jacktogon/ringcam/internal/core/constants"
	"github.com/jacktogon/ringcam/internal/core/domain"
)

// batchStreamHandler drains up to one batch of frames, oldest first, and
// returns them as a JSON array of base64 strings. An empty ring answers [].
// HEAD only reports occupancy; frames leave the ring when a body carries them.
//
// Query parameters:
//
//	wait=<duration>  wait up to this long for a frame when the ring is empty,
//	                 capped by stream.max_wait
//	limit=<n>        drain fewer than the configured batch size
func (a *Application) batchStreamHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	wait, limit, err := a.parseBatchQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set(constants.HeaderCacheCtrl, "no-store")

	if r.Method == http.MethodHead {
		w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
		w.Header().Set(constants.HeaderRingcamOccupancy, strconv.Itoa(a.buffer.Occupancy()))
		w.WriteHeader(http.StatusOK)
		return
	}

	if wait > 0 && a.buffer.Occupancy() == 0 {
		a.awaitFrame(r.Context(), wait)
	}

	frames := a.buffer.Drain(limit)

	// encoding happens outside the buffer lock, on our own copies
	payload := make([]string, 0, len(frames))
	var encodedBytes int64
	failures := 0
	for _, frame := range frames {
		encoded, err := a.encoder.Encode(frame.Data)
		if err != nil {
			failures++
			middleware.GetLogger(r.Context()).Warn("Dropping frame from batch",
				"error", &domain.EncodeError{Seq: frame.Seq, Size: len(frame.Data), Err: err})
			continue
		}
		encodedBytes += int64(len(encoded))
		payload = append(payload, encoded)
	}

	w.Header().Set(constants.HeaderRingcamOccupancy, strconv.Itoa(a.buffer.Occupancy()))
	a.writeJSON(w, http.StatusOK, payload)

	elapsed := time.Since(start)
	a.stats.RecordBatch(len(payload), encodedBytes, failures)
	a.stats.RecordBatchLatency(elapsed)
	if a.metrics != nil {
		a.metrics.ObserveBatch(elapsed, len(payload))
	}
}

func (a *Application) parseBatchQuery(r *http.Request) (wait time.Duration, limit int, err error) {
	q := r.URL.Query()

	if raw := q.Get("wait"); raw != "" {
		wait, err = time.ParseDuration(raw)
		if err != nil || wait < 0 {
			return 0, 0, fmt.Errorf("invalid wait %q", raw)
		}
		wait = min(wait, a.MaxWait())
	}

	batch := a.buffer.BatchSize()
	limit = batch
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", raw)
		}
		limit = min(limit, batch)
	}
	return wait, limit, nil
}

// awaitFrame parks the request until a capture lands, the wait elapses or
// the client goes away. The ring is rechecked after subscribing so a frame
// written in between is not missed.
func (a *Application) awaitFrame(ctx context.Context, wait time.Duration) {
	if a.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	events, cleanup := a.events.Subscribe(ctx)
	defer cleanup()

	if a.buffer.Occupancy() > 0 {
		return
	}

	select {
	case <-events:
	case <-ctx.Done():
	}
}
