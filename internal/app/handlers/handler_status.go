package handlers

import (
	"net/http"
	"time"

	"github.com/jacktogon/ringcam/internal/core/domain"
	"github.com/jacktogon/ringcam/pkg/eventbus"
	"github.com/jacktogon/ringcam/pkg/format"
)

type StatusResponse struct {
	Timestamp time.Time           `json:"timestamp"`
	Buffer    domain.BufferStats  `json:"buffer"`
	Producer  ProducerStatus      `json:"producer"`
	Capture   domain.CaptureStats `json:"capture"`
	Summary   StatusSummary       `json:"summary"`
	Events    eventbus.Stats      `json:"events"`
	Uptime    string              `json:"uptime"`
}

type ProducerStatus struct {
	State     string `json:"state"`
	Source    string `json:"source"`
	Period    string `json:"period"`
	FrameRate string `json:"frame_rate"`
}

// StatusSummary carries the human readable figures shown on dashboards
type StatusSummary struct {
	Fill         string `json:"fill"`
	EvictionRate string `json:"eviction_rate"`
	Captured     string `json:"captured"`
	Served       string `json:"served"`
	LastCapture  string `json:"last_capture"`
	CaptureP95   string `json:"capture_p95"`
	BatchP95     string `json:"batch_p95"`
}

func (a *Application) statusHandler(w http.ResponseWriter, r *http.Request) {
	buf := a.buffer.Stats()
	capture := a.stats.Snapshot()

	resp := StatusResponse{
		Timestamp: time.Now(),
		Buffer:    buf,
		Capture:   capture,
		Uptime:    format.Duration(time.Since(a.StartTime)),
		Summary: StatusSummary{
			// at most capacity-1 frames can be held
			Fill:         format.Ratio(int64(buf.Occupancy), int64(buf.Capacity-1)),
			EvictionRate: format.Ratio(capture.Evictions, capture.FramesCaptured),
			Captured:     format.Bytes(uint64(max(capture.BytesCaptured, 0))),
			Served:       format.Bytes(uint64(max(capture.BytesServed, 0))),
			LastCapture:  format.TimeAgo(capture.LastCapture),
			CaptureP95:   format.Microseconds(capture.CaptureLatency.P95),
			BatchP95:     format.Microseconds(capture.BatchLatency.P95),
		},
	}

	if a.producer != nil {
		resp.Producer = ProducerStatus{
			State:     a.producer.State().String(),
			Source:    a.producer.SourceName(),
			Period:    a.producer.Period().String(),
			FrameRate: format.FrameRate(a.producer.Period()),
		}
	}
	if a.events != nil {
		resp.Events = a.events.Stats()
	}

	a.writeJSON(w, http.StatusOK, resp)
}
