package handlers

import (
	"net/http"

	"github.com/jacktogon/ringcam/internal/core/constants"
	"github.com/jacktogon/ringcam/internal/core/domain"
)

var (
	healthyJSON  = []byte(`{"status":"healthy"}`)
	degradedJSON = []byte(`{"status":"degraded","reason":"capture stopped"}`)
)

// healthHandler reports healthy while the capture loop runs. A stopped
// producer still answers so probes can tell the process apart from the camera.
func (a *Application) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.Header().Set(constants.HeaderCacheCtrl, "no-store")

	if a.producer != nil && a.producer.State() == domain.ProducerStopped {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write(degradedJSON)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(healthyJSON)
}
