package camera

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jacktogon/ringcam/internal/core/constants"
	"github.com/jacktogon/ringcam/internal/core/domain"
)

// Directory replays the JPEG files of a directory in name order, starting
// over once the last file has been served. The listing is refreshed on each
// wrap so files dropped in while running are picked up.
type Directory struct {
	*driver
	dir   string
	files []string
	next  int
}

func NewDirectory(dir string, width, height, frameBuffers int) (*Directory, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("directory camera: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("directory camera: %s is not a directory", dir)
	}

	s := &Directory{dir: dir}
	d, err := newDriver(constants.SourceDirectory, frameBuffers, width, height, s.read)
	if err != nil {
		return nil, err
	}
	s.driver = d
	return s, nil
}

func (s *Directory) scan() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("directory camera: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg":
			files = append(files, filepath.Join(s.dir, e.Name()))
		}
	}
	slices.Sort(files)

	s.files = files
	s.next = 0
	return nil
}

// read runs with the driver mutex held
func (s *Directory) read(_ context.Context, dst []byte) ([]byte, error) {
	if s.next >= len(s.files) {
		if err := s.scan(); err != nil {
			return nil, err
		}
	}
	if len(s.files) == 0 {
		return nil, fmt.Errorf("%w: no jpeg files in %s", domain.ErrNoFrame, s.dir)
	}

	path := s.files[s.next]
	s.next++

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("directory camera: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("directory camera: %w", err)
	}

	size := int(info.Size())
	if cap(dst) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]
	if _, err := io.ReadFull(f, dst); err != nil {
		return nil, fmt.Errorf("directory camera: read %s: %w", path, err)
	}
	return dst, nil
}
