package handlers

import (
	"net/http"
	"time"

	"github.com/jacktogon/ringcam/internal/util"
	"github.com/jacktogon/ringcam/pkg/format"
	"github.com/jacktogon/ringcam/pkg/nerdstats"
)

type ProcessStatsResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Memory    struct {
		HeapAlloc      string `json:"heap_alloc"`
		HeapSys        string `json:"heap_sys"`
		HeapInuse      string `json:"heap_inuse"`
		HeapReleased   string `json:"heap_released"`
		StackInuse     string `json:"stack_inuse"`
		TotalAlloc     string `json:"total_alloc"`
		MemoryPressure string `json:"memory_pressure"`
	} `json:"memory"`

	GarbageCollection struct {
		LastGC        string  `json:"last_gc,omitempty"`
		TotalGCTime   string  `json:"total_gc_time,omitempty"`
		AvgGCPause    string  `json:"avg_gc_pause,omitempty"`
		GCCPUFraction float64 `json:"gc_cpu_fraction"`
		NumGC         uint32  `json:"num_gc_cycles"`
	} `json:"garbage_collection"`

	Goroutines struct {
		HealthStatus string `json:"health_status"`
		Count        int    `json:"count"`
	} `json:"goroutines"`

	Runtime struct {
		Uptime     string            `json:"uptime"`
		GoVersion  string            `json:"go_version"`
		Build      map[string]string `json:"build"`
		NumCPU     int               `json:"num_cpu"`
		GOMAXPROCS int               `json:"gomaxprocs"`
	} `json:"runtime"`

	Allocations struct {
		TotalMallocs uint64 `json:"total_mallocs"`
		TotalFrees   uint64 `json:"total_frees"`
		NetObjects   int64  `json:"net_objects"`
	} `json:"allocations"`
}

func (a *Application) processStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats := nerdstats.Snapshot(a.StartTime)

	resp := ProcessStatsResponse{Timestamp: time.Now()}

	resp.Memory.HeapAlloc = format.Bytes(stats.HeapAlloc)
	resp.Memory.HeapSys = format.Bytes(stats.HeapSys)
	resp.Memory.HeapInuse = format.Bytes(stats.HeapInuse)
	resp.Memory.HeapReleased = format.Bytes(stats.HeapReleased)
	resp.Memory.StackInuse = format.Bytes(stats.StackInuse)
	resp.Memory.TotalAlloc = format.Bytes(stats.TotalAlloc)
	resp.Memory.MemoryPressure = stats.MemoryPressure()

	resp.Allocations.TotalMallocs = stats.Mallocs
	resp.Allocations.TotalFrees = stats.Frees
	resp.Allocations.NetObjects = util.SafeInt64Diff(stats.Mallocs, stats.Frees)

	resp.GarbageCollection.NumGC = stats.NumGC
	resp.GarbageCollection.GCCPUFraction = stats.GCCPUFraction
	if !stats.LastGC.IsZero() {
		resp.GarbageCollection.LastGC = stats.LastGC.Format(time.RFC3339)
		resp.GarbageCollection.TotalGCTime = format.Duration(stats.TotalGCTime)
		resp.GarbageCollection.AvgGCPause = format.Duration(stats.AverageGCPause())
	}

	resp.Goroutines.Count = stats.NumGoroutines
	resp.Goroutines.HealthStatus = stats.GoroutineHealth()

	resp.Runtime.Uptime = format.Duration(stats.Uptime)
	resp.Runtime.GoVersion = stats.GoVersion
	resp.Runtime.Build = stats.BuildSummary()
	resp.Runtime.NumCPU = stats.NumCPU
	resp.Runtime.GOMAXPROCS = stats.GOMAXPROCS

	a.writeJSON(w, http.StatusOK, resp)
}
