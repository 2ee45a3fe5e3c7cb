package camera

import (
	"fmt"

	"github.com/jacktogon/ringcam/internal/config"
	"github.com/jacktogon/ringcam/internal/core/constants"
	"github.com/jacktogon/ringcam/internal/core/ports"
)

// NewSource builds the frame source selected by capture.source
func NewSource(cfg *config.CaptureConfig) (ports.FrameSource, error) {
	switch cfg.Source {
	case constants.SourceSynthetic, "":
		return NewSynthetic(cfg.Width, cfg.Height, cfg.Quality, cfg.FrameBuffers)
	case constants.SourceDirectory:
		return NewDirectory(cfg.Directory, cfg.Width, cfg.Height, cfg.FrameBuffers)
	case constants.SourceCommand:
		return NewCommand(CommandOptions{
			Name:         cfg.Command,
			Args:         cfg.CommandArgs,
			Timeout:      cfg.CommandTimeout,
			Width:        cfg.Width,
			Height:       cfg.Height,
			Quality:      cfg.Quality,
			FrameBuffers: cfg.FrameBuffers,
		})
	default:
		return nil, fmt.Errorf("unknown capture source %q", cfg.Source)
	}
}
