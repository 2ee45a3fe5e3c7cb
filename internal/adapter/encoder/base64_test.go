package encoder

import (
	"bytes"
	"encoding/base64"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacktogon/ringcam/internal/core/domain"
	"github.com/jacktogon/ringcam/internal/core/ports"
)

var _ ports.FrameEncoder = (*Base64Encoder)(nil)

func TestBase64Encoder_Encode(t *testing.T) {
	enc, err := NewBase64Encoder(0)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"empty", []byte{}, ""},
		{"jpeg magic", []byte{0xFF, 0xD8, 0xFF}, "/9j/"},
		{"padded", []byte("W1"), "VzE="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := enc.Encode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBase64Encoder_LargeFrameRoundTrip(t *testing.T) {
	enc, err := NewBase64Encoder(0)
	require.NoError(t, err)

	frame := bytes.Repeat([]byte{0xAB, 0x01, 0x7F}, initialScratchSize)
	got, err := enc.Encode(frame)
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(got)
	require.NoError(t, err)
	assert.Equal(t, frame, decoded)
}

func TestBase64Encoder_MaxEncodedSize(t *testing.T) {
	enc, err := NewBase64Encoder(8)
	require.NoError(t, err)
	assert.Equal(t, 8, enc.MaxEncodedSize())

	_, err = enc.Encode([]byte("123456"))
	assert.NoError(t, err, "six bytes encode to exactly eight")

	_, err = enc.Encode([]byte("1234567"))
	assert.ErrorIs(t, err, domain.ErrEncodedTooLarge)

	_, err = NewBase64Encoder(-1)
	var cfgErr *domain.ConfigValidationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBase64Encoder_ResultsDoNotShareScratch(t *testing.T) {
	enc, err := NewBase64Encoder(0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(b byte) {
			defer wg.Done()
			in := bytes.Repeat([]byte{b}, 300)
			for j := 0; j < 50; j++ {
				got, err := enc.Encode(in)
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, base64.StdEncoding.EncodeToString(in), got)
			}
		}(byte(i))
	}
	wg.Wait()
}
