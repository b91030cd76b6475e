package config

import "time"

const (
	DefaultHost          = "localhost"
	DefaultPort          = 3000
	DefaultHealthPath    = "/api/health"
	DefaultClassifyPath  = "/api/classify"
	DefaultTimeout       = 30 * time.Second
	DefaultImageTimeout  = 90 * time.Second
	DefaultHealthTimeout = 10 * time.Second
	DefaultUserAgent     = "QRIS-Classifier-Test/1.0"
	DefaultSuite         = "production"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Host:          DefaultHost,
		Port:          DefaultPort,
		HealthPath:    DefaultHealthPath,
		ClassifyPath:  DefaultClassifyPath,
		Timeout:       Duration(DefaultTimeout),
		ImageTimeout:  Duration(DefaultImageTimeout),
		HealthTimeout: Duration(DefaultHealthTimeout),
		UserAgent:     DefaultUserAgent,
		Suite:         DefaultSuite,
	}
}

// Scaffold returns the config written by `classifyprobe init`. It carries the
// two deployments the harness was first written against.
func Scaffold() *Config {
	return &Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		Suite:          "./cases.yaml",
		DefaultProfile: "local",
		Profiles: map[string]*Config{
			"local": {
				Port:   9002,
				APIKey: "{{$QRIS_API_KEY}}",
				Suite:  "local",
			},
			"production": {
				Host:  "api.example.com",
				Port:  443,
				HTTPS: BoolPtr(true),
				Token: "{{$QRIS_TOKEN}}",
				Suite: "production",
			},
		},
	}
}
