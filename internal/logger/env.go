package logger

import (
	"os"
	"strings"
)

// InitFromEnv configures logging from LOG_* env vars. Called by every binary
// before anything else logs.
func InitFromEnv() {
	Init(Config{
		Level:   getenvDefault("LOG_LEVEL", "info"),
		Format:  getenvDefault("LOG_FORMAT", "json"),
		Output:  getenvDefault("LOG_OUTPUT", "stdout"),
		Service: os.Getenv("LOG_SERVICE"),
	})
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
