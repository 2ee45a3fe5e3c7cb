package constants

const (
	ContentTypeJSON   = "application/json"
	ContentTypeText   = "text/plain"
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"
	HeaderXRequestID  = "X-Request-ID"
	HeaderCacheCtrl   = "Cache-Control"
	HeaderRetryAfter  = "Retry-After"

	HeaderRingcamRequestID = "X-Ringcam-Request-ID"
	HeaderRingcamOccupancy = "X-Ringcam-Occupancy"
)

const (
	DefaultBatchStreamEndpoint = "/batch_stream"
	DefaultHealthCheckEndpoint = "/internal/health"
	DefaultStatusEndpoint      = "/internal/status"
	DefaultProcessEndpoint     = "/internal/process"
	DefaultVersionEndpoint     = "/version"
	DefaultMetricsEndpoint     = "/metrics"
)

const (
	ContextRequestIdKey   = "request_id"
	ContextRequestTimeKey = "request_time"
)

const (
	SourceSynthetic = "synthetic"
	SourceDirectory = "directory"
	SourceCommand   = "command"

	FormatJPEG = "jpeg"
)
