package sigconfig_test

import (
	"os"
	"testing"

	"github.com/ironvault/sigcollector/pkg/sigconfig"
	"github.com/stretchr/testify/assert"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	os.Unsetenv("SIGCOLLECTOR_LOG_LEVEL")
	os.Unsetenv("SIGCOLLECTOR_OTLP_ENDPOINT")

	cfg := sigconfig.Load()
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
}

func TestLoad_ReadsOverrides(t *testing.T) {
	t.Setenv("SIGCOLLECTOR_LOG_LEVEL", "DEBUG")
	cfg := sigconfig.Load()
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}
