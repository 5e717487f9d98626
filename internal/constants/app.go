package constants

// Application Information
const (
	AppName    = "learnpath"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Redis key prefixes
const (
	KeyPrefix          = "learnpath:"
	KeyRateLimitPrefix = KeyPrefix + "ratelimit:"
)

// Log Levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)
