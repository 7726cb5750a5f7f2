package sigconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DeploymentProfile is a per-deployment policy for how a collector process
// paces interactors and flags compliance rules. It is loaded once at
// startup and handed to pkg/sigrate and pkg/sigcompliance; it is never
// consulted mid-batch.
type DeploymentProfile struct {
	Name string `yaml:"name"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Observability struct {
		Enabled      bool   `yaml:"enabled"`
		OTLPEndpoint string `yaml:"otlp_endpoint"`
	} `yaml:"observability"`

	ComplianceRules []ComplianceRule `yaml:"compliance_rules"`
}

// ComplianceRule is the YAML form of a sigcompliance.Rule.
type ComplianceRule struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
}

// LoadProfile loads a deployment profile by name, searching profilesDir for
// profile_<name>.yaml.
func LoadProfile(profilesDir, name string) (*DeploymentProfile, error) {
	name = strings.ToLower(name)
	path := filepath.Join(profilesDir, fmt.Sprintf("profile_%s.yaml", name))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sigconfig: loading profile %q: %w", name, err)
	}

	var profile DeploymentProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("sigconfig: parsing profile %q: %w", name, err)
	}
	if profile.Name == "" {
		profile.Name = name
	}
	return &profile, nil
}
