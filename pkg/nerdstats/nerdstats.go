package nerdstats

/*
	NerdStats takes a snapshot of the Go runtime for the process endpoint and
	the shutdown report. The capture loop is one goroutine and every request
	is short, so goroutine counts well past a few dozen usually mean stuck
	long-poll clients.

	See: https://pkg.go.dev/runtime#MemStats
*/

import (
	"runtime"
	"runtime/debug"
	"time"
)

type NerdStats struct {
	LastGC    time.Time
	GoVersion string
	BuildInfo *debug.BuildInfo

	HeapAlloc    uint64
	HeapSys      uint64
	HeapInuse    uint64
	HeapReleased uint64
	StackInuse   uint64
	TotalAlloc   uint64
	Mallocs      uint64
	Frees        uint64

	TotalGCTime   time.Duration
	Uptime        time.Duration
	GCCPUFraction float64
	NumCgoCall    int64
	NumGC         uint32
	NumGoroutines int
	NumCPU        int
	GOMAXPROCS    int
}

func Snapshot(startTime time.Time) *NerdStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &NerdStats{
		HeapAlloc:     m.HeapAlloc,
		HeapSys:       m.HeapSys,
		HeapInuse:     m.HeapInuse,
		HeapReleased:  m.HeapReleased,
		StackInuse:    m.StackInuse,
		TotalAlloc:    m.TotalAlloc,
		Mallocs:       m.Mallocs,
		Frees:         m.Frees,
		NumGC:         m.NumGC,
		GCCPUFraction: m.GCCPUFraction,
		NumGoroutines: runtime.NumGoroutine(),
		NumCgoCall:    runtime.NumCgoCall(),
		NumCPU:        runtime.NumCPU(),
		GOMAXPROCS:    runtime.GOMAXPROCS(0),
		GoVersion:     runtime.Version(),
		Uptime:        time.Since(startTime),
	}

	if m.LastGC > 0 {
		stats.LastGC = time.Unix(0, int64(m.LastGC))
		stats.TotalGCTime = time.Duration(m.PauseTotalNs)
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		stats.BuildInfo = info
	}
	return stats
}

// AverageGCPause is zero until the first collection
func (ps *NerdStats) AverageGCPause() time.Duration {
	if ps.NumGC == 0 {
		return 0
	}
	return ps.TotalGCTime / time.Duration(ps.NumGC)
}

// MemoryPressure gives a rough LOW/MEDIUM/HIGH read of heap usage. The ring
// keeps capacity slots allocated for the life of the process, so a high
// in-use ratio on its own is expected and only counts with allocation churn.
func (ps *NerdStats) MemoryPressure() string {
	if ps.HeapSys == 0 {
		return "LOW"
	}
	inUse := float64(ps.HeapInuse) / float64(ps.HeapSys)
	churn := float64(ps.Mallocs) / float64(ps.Frees+1)

	switch {
	case inUse > 0.9 && churn > 1.5:
		return "HIGH"
	case inUse > 0.75 && churn > 1.2:
		return "MEDIUM"
	}
	return "LOW"
}

func (ps *NerdStats) GoroutineHealth() string {
	switch {
	case ps.NumGoroutines > 500:
		return "CONCERNING"
	case ps.NumGoroutines > 100:
		return "ELEVATED"
	}
	return "HEALTHY"
}

// BuildSummary picks the build settings worth showing from the embedded build info
func (ps *NerdStats) BuildSummary() map[string]string {
	summary := make(map[string]string)
	if ps.BuildInfo == nil {
		return summary
	}

	summary["path"] = ps.BuildInfo.Path
	summary["main_version"] = ps.BuildInfo.Main.Version
	for _, setting := range ps.BuildInfo.Settings {
		switch setting.Key {
		case "CGO_ENABLED", "GOARCH", "GOOS", "GOARM", "vcs.revision", "vcs.time":
			summary[setting.Key] = setting.Value
		}
	}
	return summary
}
