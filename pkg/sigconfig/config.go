// Package sigconfig loads the host-level settings a sigcollector deployment
// needs: environment variables for the few knobs every process reads at
// startup, and YAML interactor profiles for the per-deployment pacing and
// observability policy a collector process runs with. Friction order and
// which kinds support parallelism are never configurable here — those are
// fixed in pkg/factor by design.
package sigconfig

import "os"

// Config holds process-level settings read from the environment.
type Config struct {
	LogLevel        string
	OTLPEndpoint    string
	RedisAddr       string
	SQLiteDSN       string
	ComplianceRules string // path to a YAML rule file, optional
}

// Load reads Config from the environment, applying defaults for anything
// unset.
func Load() *Config {
	return &Config{
		LogLevel:        getenv("SIGCOLLECTOR_LOG_LEVEL", "INFO"),
		OTLPEndpoint:    getenv("SIGCOLLECTOR_OTLP_ENDPOINT", "localhost:4317"),
		RedisAddr:       getenv("SIGCOLLECTOR_REDIS_ADDR", ""),
		SQLiteDSN:       getenv("SIGCOLLECTOR_SQLITE_DSN", "sigcollector.db"),
		ComplianceRules: getenv("SIGCOLLECTOR_COMPLIANCE_RULES", ""),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
