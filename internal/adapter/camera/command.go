package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/jacktogon/ringcam/internal/core/constants"
)

const (
	CommandRpicam    = "rpicam-jpeg"
	CommandLibcamera = "libcamera-jpeg"
)

// CommandOptions configures a still capture command
type CommandOptions struct {
	// Name is the binary to run; rpicam-jpeg falls back to libcamera-jpeg
	// on older Raspberry Pi OS images
	Name string
	// Args replaces the default rpicam argument set when non-empty
	Args         []string
	Timeout      time.Duration
	Width        int
	Height       int
	Quality      int
	FrameBuffers int
}

// Command captures each frame by running an external tool that writes a
// JPEG to stdout
type Command struct {
	*driver
	stderr  bytes.Buffer
	opts    CommandOptions
	current string
}

func NewCommand(opts CommandOptions) (*Command, error) {
	if opts.Name == "" {
		opts.Name = CommandRpicam
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	c := &Command{opts: opts, current: opts.Name}
	d, err := newDriver(constants.SourceCommand, opts.FrameBuffers, opts.Width, opts.Height, c.capture)
	if err != nil {
		return nil, err
	}
	c.driver = d
	return c, nil
}

// Binary reports the command currently used for capture
func (c *Command) Binary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Command) args() []string {
	if len(c.opts.Args) > 0 {
		return c.opts.Args
	}
	return []string{
		"--width", strconv.Itoa(c.opts.Width),
		"--height", strconv.Itoa(c.opts.Height),
		"--quality", strconv.Itoa(c.opts.Quality),
		"--timeout", "1",
		"--nopreview",
		"--output", "-",
	}
}

// capture runs with the driver mutex held
func (c *Command) capture(ctx context.Context, dst []byte) ([]byte, error) {
	data, err := c.run(ctx, c.current, dst)
	if err == nil {
		return data, nil
	}
	if c.current == CommandRpicam && errors.Is(err, exec.ErrNotFound) {
		c.current = CommandLibcamera
		return c.run(ctx, c.current, dst)
	}
	return nil, err
}

func (c *Command) run(ctx context.Context, name string, dst []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	stdout := bytes.NewBuffer(dst)
	c.stderr.Reset()

	cmd := exec.CommandContext(ctx, name, c.args()...)
	cmd.Stdout = stdout
	cmd.Stderr = &c.stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w (stderr: %s)", name, err, bytes.TrimSpace(c.stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}
