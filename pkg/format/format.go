package format

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
)

const (
	zeroPercent = "0%"
	never       = "never"
)

// Bytes renders a byte count in binary units, "512 B" or "1.5 MiB"
func Bytes(bytes uint64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	return units.CustomSize("%.2f %s", float64(bytes), 1024.0, []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"})
}

// Duration keeps sub-second values exact and rounds anything longer to whole
// seconds, e.g. "250ms", "1m30s", "2h5m0s"
func Duration(d time.Duration) string {
	if d < time.Second {
		return d.String()
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

func Percentage(value float64) string {
	if value == 0 {
		return zeroPercent
	}
	if value == 100.0 {
		return "100%"
	}
	return fmt.Sprintf("%.1f%%", value)
}

// Ratio renders part/total as a percentage, zero when total is zero
func Ratio(part, total int64) string {
	if total <= 0 {
		return zeroPercent
	}
	return Percentage(float64(part) * 100 / float64(total))
}

// FrameRate renders the rate implied by a capture period, e.g. "10.0 fps"
func FrameRate(period time.Duration) string {
	if period <= 0 {
		return "0 fps"
	}
	return fmt.Sprintf("%.1f fps", float64(time.Second)/float64(period))
}

// Microseconds renders a latency sample stored in microseconds
func Microseconds(us int64) string {
	return Duration(time.Duration(us) * time.Microsecond)
}

func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return never
	}
	return shortDuration(time.Since(t)) + " ago"
}

func shortDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%.0fm", d.Minutes())
	case d < 24*time.Hour:
		return fmt.Sprintf("%.0fh", d.Hours())
	}
	return fmt.Sprintf("%.0fd", d.Hours()/24)
}
