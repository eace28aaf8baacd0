package mockex

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario controls how the mock venue behaves. The zero value accepts
// every well-formed request and fills market orders at builtin quotes.
type Scenario struct {
	// Secret, when set, makes the venue verify request signatures.
	Secret string `yaml:"secret"`

	// FailFirst fails the first N order requests with HTTP 503 so
	// retry handling can be exercised.
	FailFirst int `yaml:"fail_first"`

	// FatalStatus, when non-zero, fails every order request with this
	// HTTP status and the scripted error below.
	FatalStatus int    `yaml:"fatal_status"`
	ErrorCode   int64  `yaml:"error_code"`
	ErrorMsg    string `yaml:"error_msg"`

	// LatencyMS delays each order response by the given milliseconds.
	LatencyMS int64 `yaml:"latency_ms"`

	// ClockSkewMS shifts the venue clock, for exercising timestamp
	// drift rejection and client time sync.
	ClockSkewMS int64 `yaml:"clock_skew_ms"`

	// Prices quotes fill prices per symbol for MARKET orders.
	Prices map[string]string `yaml:"prices"`
}

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (Scenario, error) {
	var sc Scenario

	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("read scenario: %w", err)
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return sc, nil
}
