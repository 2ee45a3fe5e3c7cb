package encoder

import (
	"encoding/base64"
	"fmt"

	"github.com/jacktogon/ringcam/internal/core/domain"
	"github.com/jacktogon/ringcam/pkg/pool"
)

// initialScratchSize fits a 640x480 JPEG at typical quality once encoded
const initialScratchSize = 96 * 1024

type scratch struct {
	buf []byte
}

func (s *scratch) Reset() {
	s.buf = s.buf[:0]
}

// Base64Encoder renders frames as standard padded base64. Scratch space is
// pooled because every poll encodes up to a full batch of frames.
type Base64Encoder struct {
	scratch    *pool.Pool[*scratch]
	maxEncoded int
}

// NewBase64Encoder builds an encoder; maxEncoded of 0 disables the size limit
func NewBase64Encoder(maxEncoded int) (*Base64Encoder, error) {
	if maxEncoded < 0 {
		return nil, &domain.ConfigValidationError{Field: "stream.max_encoded_size", Value: maxEncoded, Reason: "must not be negative"}
	}

	p, err := pool.NewLitePool(func() *scratch {
		return &scratch{buf: make([]byte, 0, initialScratchSize)}
	})
	if err != nil {
		return nil, err
	}
	return &Base64Encoder{scratch: p, maxEncoded: maxEncoded}, nil
}

func (e *Base64Encoder) Encode(data []byte) (string, error) {
	n := base64.StdEncoding.EncodedLen(len(data))
	if e.maxEncoded > 0 && n > e.maxEncoded {
		return "", fmt.Errorf("%w: %d bytes over limit of %d", domain.ErrEncodedTooLarge, n, e.maxEncoded)
	}

	s := e.scratch.Get()
	defer e.scratch.Put(s)

	if cap(s.buf) < n {
		s.buf = make([]byte, n)
	}
	dst := s.buf[:n]
	base64.StdEncoding.Encode(dst, data)
	return string(dst), nil
}

// MaxEncodedSize reports the configured limit, 0 when unlimited
func (e *Base64Encoder) MaxEncodedSize() int {
	return e.maxEncoded
}
