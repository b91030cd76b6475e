package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/env"
	"github.com/abdul-hamid-achik/classifyprobe/packages/http"
	"gopkg.in/yaml.v3"
)

// ErrAuthConflict is returned when both a token and an API key are configured.
var ErrAuthConflict = errors.New("token and apiKey are mutually exclusive")

// Config represents the classifyprobe configuration. Pointer fields
// distinguish "unset" from the zero value so layers can be merged.
type Config struct {
	Host          string            `yaml:"host,omitempty"`
	Port          int               `yaml:"port,omitempty"`
	HTTPS         *bool             `yaml:"https,omitempty"`
	Token         string            `yaml:"token,omitempty"`
	APIKey        string            `yaml:"apiKey,omitempty"`
	HealthPath    string            `yaml:"healthPath,omitempty"`
	ClassifyPath  string            `yaml:"classifyPath,omitempty"`
	Timeout       Duration          `yaml:"timeout,omitempty"`
	ImageTimeout  Duration          `yaml:"imageTimeout,omitempty"`
	HealthTimeout Duration          `yaml:"healthTimeout,omitempty"`
	SkipHealth    *bool             `yaml:"skipHealth,omitempty"`
	ValidateSSL   *bool             `yaml:"validateSSL,omitempty"`
	Lenient       *bool             `yaml:"lenient,omitempty"`
	Proxy         string            `yaml:"proxy,omitempty"`
	Headers       map[string]string `yaml:"headers,omitempty"`
	UserAgent     string            `yaml:"userAgent,omitempty"`
	ClientVersion string            `yaml:"clientVersion,omitempty"`
	Rate          float64           `yaml:"rate,omitempty"`
	Suite         string            `yaml:"suite,omitempty"`
	Schema        string            `yaml:"schema,omitempty"`
	History       string            `yaml:"history,omitempty"`

	Profiles       map[string]*Config `yaml:"profiles,omitempty"`
	DefaultProfile string             `yaml:"defaultProfile,omitempty"`

	// Source is the file the config was read from, if any.
	Source string `yaml:"-"`
}

// Duration accepts "30s"-style strings or a bare number of milliseconds.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	parsed, err := parseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q (use format like 30s, 1m, 500ms)", s)
	}
	return d, nil
}

func BoolPtr(b bool) *bool {
	return &b
}

func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

func (c *Config) GetHTTPS() bool       { return getBool(c.HTTPS, false) }
func (c *Config) GetSkipHealth() bool  { return getBool(c.SkipHealth, false) }
func (c *Config) GetValidateSSL() bool { return getBool(c.ValidateSSL, true) }
func (c *Config) GetLenient() bool     { return getBool(c.Lenient, false) }

// Scheme returns "https" or "http".
func (c *Config) Scheme() string {
	if c.GetHTTPS() {
		return "https"
	}
	return "http"
}

// BaseURL returns scheme://host:port.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", c.Scheme(), c.Host, c.Port)
}

// Auth returns the credential selected by Token or APIKey.
func (c *Config) Auth() (http.Auth, error) {
	if c.Token != "" && c.APIKey != "" {
		return http.Auth{}, ErrAuthConflict
	}
	return http.ResolveAuth(c.Token, c.APIKey)
}

// ProfileNames lists the configured profiles in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConfigFilenames contains the possible config file names, in search order.
var ConfigFilenames = []string{
	"classifyprobe.yaml",
	".classifyprobe.yaml",
	"classifyprobe.json",
	".classifyprobe.json",
}

// LoadConfig loads the file at path, or searches the current directory when
// path is empty. Values are layered over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig loads the first config file found in dir, or the defaults
// when there is none.
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}
	return DefaultConfig(), nil
}

// loadConfigFromFile decodes YAML or JSON; JSON is read as YAML.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	config := DefaultConfig().Merge(&fileConfig)
	config.Profiles = fileConfig.Profiles
	config.DefaultProfile = fileConfig.DefaultProfile
	config.Source = path
	return config, nil
}

// Merge returns a copy of c with the set fields of other applied on top.
// Profiles are not merged.
func (c *Config) Merge(other *Config) *Config {
	result := *c
	result.Headers = copyHeaders(c.Headers)
	if other == nil {
		return &result
	}

	mergeString(&result.Host, other.Host)
	mergeString(&result.Token, other.Token)
	mergeString(&result.APIKey, other.APIKey)
	mergeString(&result.HealthPath, other.HealthPath)
	mergeString(&result.ClassifyPath, other.ClassifyPath)
	mergeString(&result.Proxy, other.Proxy)
	mergeString(&result.UserAgent, other.UserAgent)
	mergeString(&result.ClientVersion, other.ClientVersion)
	mergeString(&result.Suite, other.Suite)
	mergeString(&result.Schema, other.Schema)
	mergeString(&result.History, other.History)

	// a profile that picks one auth scheme clears the other
	if other.Token != "" && other.APIKey == "" {
		result.APIKey = ""
	}
	if other.APIKey != "" && other.Token == "" {
		result.Token = ""
	}

	if other.Port > 0 {
		result.Port = other.Port
	}
	if other.Rate > 0 {
		result.Rate = other.Rate
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.ImageTimeout > 0 {
		result.ImageTimeout = other.ImageTimeout
	}
	if other.HealthTimeout > 0 {
		result.HealthTimeout = other.HealthTimeout
	}

	if other.HTTPS != nil {
		result.HTTPS = other.HTTPS
	}
	if other.SkipHealth != nil {
		result.SkipHealth = other.SkipHealth
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Lenient != nil {
		result.Lenient = other.Lenient
	}

	if len(other.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range other.Headers {
			result.Headers[k] = v
		}
	}

	return &result
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func copyHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// ApplyProfile merges the named profile. An empty name selects
// DefaultProfile; an empty name with no default is a no-op.
func (c *Config) ApplyProfile(name string) (*Config, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	if name == "" {
		return c, nil
	}
	profile, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(c.ProfileNames(), ", "))
	}
	return c.Merge(profile), nil
}

// ApplyEnv merges CLASSIFYPROBE_* variables, keyed without the prefix.
func (c *Config) ApplyEnv(vars map[string]string) (*Config, error) {
	var overlay Config
	var err error

	setBool := func(key string, dst **bool) {
		v, ok := vars[key]
		if !ok || v == "" || err != nil {
			return
		}
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			err = fmt.Errorf("%s%s: invalid boolean %q", env.Prefix, key, v)
			return
		}
		*dst = &b
	}
	setDuration := func(key string, dst *Duration) {
		v, ok := vars[key]
		if !ok || v == "" || err != nil {
			return
		}
		d, perr := parseDuration(v)
		if perr != nil {
			err = fmt.Errorf("%s%s: %w", env.Prefix, key, perr)
			return
		}
		*dst = Duration(d)
	}

	overlay.Host = vars["HOST"]
	overlay.Token = vars["TOKEN"]
	overlay.APIKey = vars["API_KEY"]
	overlay.Suite = vars["SUITE"]
	overlay.Proxy = vars["PROXY"]
	overlay.Schema = vars["SCHEMA"]
	overlay.History = vars["HISTORY"]
	overlay.UserAgent = vars["USER_AGENT"]
	overlay.ClientVersion = vars["CLIENT_VERSION"]

	if v := vars["PORT"]; v != "" {
		port, perr := strconv.Atoi(v)
		if perr != nil {
			return nil, fmt.Errorf("%sPORT: invalid port %q", env.Prefix, v)
		}
		overlay.Port = port
	}
	if v := vars["RATE"]; v != "" {
		rate, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return nil, fmt.Errorf("%sRATE: invalid rate %q", env.Prefix, v)
		}
		overlay.Rate = rate
	}

	setBool("HTTPS", &overlay.HTTPS)
	setBool("SKIP_HEALTH", &overlay.SkipHealth)
	setBool("LENIENT", &overlay.Lenient)
	setDuration("TIMEOUT", &overlay.Timeout)
	setDuration("IMAGE_TIMEOUT", &overlay.ImageTimeout)
	setDuration("HEALTH_TIMEOUT", &overlay.HealthTimeout)
	if err != nil {
		return nil, err
	}

	return c.Merge(&overlay), nil
}

// Resolve expands {{$VAR}} and {{func()}} references in string values.
func (c *Config) Resolve(r *env.Resolver) *Config {
	result := c.Merge(nil)
	result.Host = r.Resolve(c.Host)
	result.Token = r.Resolve(c.Token)
	result.APIKey = r.Resolve(c.APIKey)
	result.Proxy = r.Resolve(c.Proxy)
	result.UserAgent = r.Resolve(c.UserAgent)
	result.ClientVersion = r.Resolve(c.ClientVersion)
	if c.Headers != nil {
		result.Headers = r.ResolveAll(c.Headers)
	}
	return result
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Token != "" && c.APIKey != "" {
		return ErrAuthConflict
	}
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if !strings.HasPrefix(c.HealthPath, "/") {
		return fmt.Errorf("healthPath %q must start with /", c.HealthPath)
	}
	if !strings.HasPrefix(c.ClassifyPath, "/") {
		return fmt.Errorf("classifyPath %q must start with /", c.ClassifyPath)
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate must not be negative")
	}
	if c.Timeout < 0 || c.ImageTimeout < 0 || c.HealthTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// SaveConfig writes the configuration as YAML.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
