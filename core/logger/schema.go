package logger

import "strings"

const (
	// LevelDebug represents the debug severity level name.
	LevelDebug = "DEBUG"
	// LevelInfo represents the info severity level name.
	LevelInfo = "INFO"
	// LevelWarn represents the warning severity level name.
	LevelWarn = "WARN"
	// LevelError represents the error severity level name.
	LevelError = "ERROR"
)

var allowedLevels = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// Outcome values accepted by the "outcome" attribute.
const (
	OutcomeOK          = "ok"
	OutcomeFail        = "fail"
	OutcomeSkip        = "skip"
	OutcomeDenied      = "denied"
	OutcomePanic       = "panic"
	OutcomeRateLimited = "rate_limited"
)

var allowedOutcome = map[string]string{
	OutcomeOK:          OutcomeOK,
	OutcomeFail:        OutcomeFail,
	OutcomeSkip:        OutcomeSkip,
	OutcomeDenied:      OutcomeDenied,
	OutcomePanic:       OutcomePanic,
	OutcomeRateLimited: OutcomeRateLimited,
}

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if mapped, ok := allowedLevels[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func normalizeOutcome(outcome string) (string, bool) {
	val, ok := allowedOutcome[strings.ToLower(strings.TrimSpace(outcome))]
	return val, ok
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"router",
	"route",
	"kind",
	"outcome",
	"duration_ms",
	"service",
	"operation",
	"method",
	"path",
	"http_code",
	"request_id",
	"state",
	"cb_data",
	"payload",
	"role",
	"coworking_id",
	"room_id",
	"slot",
	"recipients",
	"delivered",
	"failed",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"driver",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
}
