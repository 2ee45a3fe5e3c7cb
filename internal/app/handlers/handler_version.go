package handlers

import (
	"net/http"
	"runtime"

	"github.com/jacktogon/ringcam/internal/core/constants"
	"github.com/jacktogon/ringcam/internal/version"
)

type VersionResponse struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Edition          string            `json:"edition"`
	Description      string            `json:"description"`
	Build            BuildInfo         `json:"build"`
	Capabilities     []string          `json:"capabilities"`
	SupportedSources []string          `json:"supported_sources"`
	Endpoints        map[string]string `json:"endpoints"`
	Links            map[string]string `json:"links"`
}

type BuildInfo struct {
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func (a *Application) versionHandler(w http.ResponseWriter, r *http.Request) {
	endpoints := map[string]string{
		"batch_stream": constants.DefaultBatchStreamEndpoint,
		"health":       constants.DefaultHealthCheckEndpoint,
		"status":       constants.DefaultStatusEndpoint,
		"process":      constants.DefaultProcessEndpoint,
	}
	if a.metricsHandler != nil {
		endpoints["metrics"] = constants.DefaultMetricsEndpoint
	}

	a.writeJSON(w, http.StatusOK, VersionResponse{
		Name:        version.Name,
		Version:     version.Version,
		Edition:     version.Edition,
		Description: version.Description,
		Build: BuildInfo{
			Commit:    version.Commit,
			Date:      version.Date,
			GoVersion: version.Runtime,
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		Capabilities:     version.Capabilities,
		SupportedSources: version.SupportedSources,
		Endpoints:        endpoints,
		Links: map[string]string{
			"homepage": version.GithubHomeUri,
			"releases": version.GithubLatestUri,
		},
	})
}
