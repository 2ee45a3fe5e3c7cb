package version

import (
	"fmt"
	"log"
	"runtime"
	"strings"

	"github.com/jacktogon/ringcam/theme"
)

var (
	Name        = "ringcam"
	Authors     = "Jack Togon"
	Description = "Camera frame ring buffer over HTTP"
	Version     = "v0.1.0"
	Edition     = "community"
	Commit      = "none"
	Date        = "nowish"
	User        = "local"
	Runtime     = runtime.Version()

	Capabilities = []string{
		"ring-buffer",
		"batch-stream",
		"long-poll",
		"prometheus-metrics",
	}
	SupportedSources = []string{"synthetic", "directory", "command"}
)

const (
	GithubHomeText  = "github.com/jacktogon/ringcam"
	GithubHomeUri   = "https://github.com/jacktogon/ringcam"
	GithubLatestUri = "https://github.com/jacktogon/ringcam/releases/latest"
)

func PrintVersionInfo(extendedInfo bool, vlog *log.Logger) {
	githubUri := theme.Hyperlink(GithubHomeUri, GithubHomeText)
	latestUri := theme.Hyperlink(GithubLatestUri, Version)

	var b strings.Builder

	b.WriteString(theme.ColourSplash(`
╔──────────────────────────────────────────────╗
│   ┌─────┐  ╭───╮                             │
│   │ ◉ ◉ │──│ ⦿ │  r i n g c a m              │
│   └─────┘  ╰───╯                             │` + "\n"))

	b.WriteString(theme.ColourSplash("│   "))
	b.WriteString(theme.StyleUrl(githubUri))
	b.WriteString(" ")
	b.WriteString(theme.ColourVersion(latestUri))
	b.WriteString(fmt.Sprintf("%*s", max(1, 13-len(Version)), ""))
	b.WriteString(theme.ColourSplash("│\n"))
	b.WriteString(theme.ColourSplash("╚──────────────────────────────────────────────╝"))

	if extendedInfo {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf(" Commit: %s\n", Commit))
		b.WriteString(fmt.Sprintf("  Built: %s\n", Date))
		b.WriteString(fmt.Sprintf("  Using: %s\n", User))
		b.WriteString(fmt.Sprintf("     Go: %s\n", Runtime))
	}

	vlog.Println(b.String())
}
