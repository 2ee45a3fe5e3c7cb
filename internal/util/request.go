package util

import (
	"math/rand/v2"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

var requestPrefixes = []string{
	"shutter", "aperture", "lens", "focus", "exposure",
	"frame", "sensor", "pixel", "flash", "iris",
}

// GenerateRequestID returns a short, log friendly request identifier such as
// "shutter_1f0c3a9e".
func GenerateRequestID() string {
	prefix := requestPrefixes[rand.IntN(len(requestPrefixes))]
	id := uuid.New()
	return prefix + "_" + strings.ReplaceAll(id.String(), "-", "")[:8]
}

// GetClientIP resolves the caller address. Forwarding headers are only honoured
// when trustProxyHeaders is set.
func GetClientIP(r *http.Request, trustProxyHeaders bool) string {
	if trustProxyHeaders {
		if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
			return strings.TrimSpace(strings.Split(ip, ",")[0])
		}
		if ip := r.Header.Get("X-Real-IP"); ip != "" {
			return strings.TrimSpace(ip)
		}
	}

	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}
