package config

// Default configuration values.
const (
	DefaultAlpha           = 0.05
	DefaultWorkers         = 1
	DefaultInitialCapacity = 0
	DefaultCodec           = "lz4-gob"
	DefaultLogLevel        = "info"
	DefaultLogJSON         = false
	DefaultMetricsAddr     = ""
	DefaultReportFormat    = "text"
)

// Accepted enumerations.
var (
	validCodecs        = []string{"lz4-gob", "gob", "json"}
	validReportFormats = []string{"text", "yaml", "none"}
	validLogLevels     = []string{"debug", "info", "warn", "error"}
)
