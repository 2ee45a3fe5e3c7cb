package util

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether stdout is attached to a terminal
func IsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ShouldUseColors honours NO_COLOR (https://no-color.org/) first, then
// FORCE_COLOR and RINGCAM_FORCE_COLORS, and otherwise colours only a terminal
func ShouldUseColors() bool {
	return colorsFor(os.Getenv, IsTerminal)
}

func colorsFor(getenv func(string) string, tty func() bool) bool {
	if getenv("NO_COLOR") != "" {
		return false
	}
	if force := getenv("FORCE_COLOR"); force != "" {
		return force != "0"
	}
	if force := getenv("RINGCAM_FORCE_COLORS"); force != "" {
		return strings.EqualFold(force, "true")
	}
	return tty()
}
