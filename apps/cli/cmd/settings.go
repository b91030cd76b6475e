package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/assertions"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/config"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/env"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/runner"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/suite"
	"github.com/abdul-hamid-achik/classifyprobe/packages/logger"
	"github.com/spf13/pflag"
)

// endpointFlags are the flags that overlay the config file. They have no
// environment fallbacks of their own; CLASSIFYPROBE_* variables reach them
// through config.ApplyEnv.
type endpointFlags struct {
	configPath string
	profile    string
	envFile    string

	suite         string
	host          string
	port          int
	https         bool
	token         string
	apiKey        string
	timeout       time.Duration
	imageTimeout  time.Duration
	healthTimeout time.Duration
	skipHealth    bool
	waitFor       time.Duration
	rate          float64
	lenient       bool
	insecure      bool
	proxy         string
	schema        string
	history       string
	name          string
	tags          string
}

func (f *endpointFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configPath, "config", getEnvString("CLASSIFYPROBE_CONFIG", ""), "Path to config file (env: CLASSIFYPROBE_CONFIG)")
	fs.StringVar(&f.profile, "profile", getEnvString("CLASSIFYPROBE_PROFILE", ""), "Config profile to apply (env: CLASSIFYPROBE_PROFILE)")
	fs.StringVar(&f.envFile, "env-file", getEnvString("CLASSIFYPROBE_ENV_FILE", ""), "Path to .env file loaded before the config (env: CLASSIFYPROBE_ENV_FILE)")

	fs.StringVarP(&f.suite, "suite", "s", "", "Built-in suite name or suite file (env: CLASSIFYPROBE_SUITE)")
	fs.StringVar(&f.host, "host", "", "API host (env: CLASSIFYPROBE_HOST)")
	fs.IntVar(&f.port, "port", 0, "API port (env: CLASSIFYPROBE_PORT)")
	fs.BoolVar(&f.https, "https", false, "Use https (env: CLASSIFYPROBE_HTTPS)")
	fs.StringVar(&f.token, "token", "", "Bearer token (env: CLASSIFYPROBE_TOKEN)")
	fs.StringVar(&f.apiKey, "api-key", "", "API key sent as X-API-Key (env: CLASSIFYPROBE_API_KEY)")
	fs.DurationVar(&f.timeout, "timeout", 0, "Timeout for text-only requests (env: CLASSIFYPROBE_TIMEOUT)")
	fs.DurationVar(&f.imageTimeout, "image-timeout", 0, "Timeout for requests with an image (env: CLASSIFYPROBE_IMAGE_TIMEOUT)")
	fs.DurationVar(&f.healthTimeout, "health-timeout", 0, "Timeout for the health probe (env: CLASSIFYPROBE_HEALTH_TIMEOUT)")
	fs.BoolVar(&f.skipHealth, "skip-health", false, "Skip the health probe (env: CLASSIFYPROBE_SKIP_HEALTH)")
	fs.DurationVar(&f.waitFor, "wait-for", 0, "Poll the health endpoint up to this long before the first case")
	fs.Float64Var(&f.rate, "rate", 0, "Maximum requests per second, 0 for unpaced (env: CLASSIFYPROBE_RATE)")
	fs.BoolVar(&f.lenient, "lenient", false, "Report expectations without failing on them (env: CLASSIFYPROBE_LENIENT)")
	fs.BoolVarP(&f.insecure, "insecure", "k", false, "Disable TLS certificate validation")
	fs.StringVar(&f.proxy, "proxy", "", "Proxy URL (env: CLASSIFYPROBE_PROXY)")
	fs.StringVar(&f.schema, "schema", "", "JSON Schema the classify response must match (env: CLASSIFYPROBE_SCHEMA)")
	fs.StringVar(&f.history, "history", "", "Record runs in a database, e.g. sqlite://.classifyprobe/history.db (env: CLASSIFYPROBE_HISTORY)")
	fs.StringVarP(&f.name, "name", "n", "", "Run only cases whose name matches the pattern")
	fs.StringVarP(&f.tags, "tags", "t", getEnvString("CLASSIFYPROBE_TAGS", ""), "Run only cases with one of the tags, comma-separated (env: CLASSIFYPROBE_TAGS)")
}

// settings is everything one run needs, resolved from all config layers.
type settings struct {
	config *config.Config
	suite  *suite.Suite
	runner *runner.Config
}

// loadSettings layers defaults, the config file, the profile, CLASSIFYPROBE_*
// variables and changed flags, in that order.
func loadSettings(fs *pflag.FlagSet, f *endpointFlags, log logger.Logger) (*settings, error) {
	if f.envFile != "" {
		if _, err := env.LoadAndExportDotEnv(f.envFile); err != nil {
			return nil, configError(fmt.Errorf("loading env file: %w", err))
		}
	}

	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, configError(err)
	}
	if cfg.Source != "" {
		log.Debugf("using config %s", cfg.Source)
	}

	if cfg, err = cfg.ApplyProfile(f.profile); err != nil {
		return nil, configError(err)
	}
	if cfg, err = cfg.ApplyEnv(env.LoadSystemEnv(env.Prefix)); err != nil {
		return nil, configError(err)
	}

	overlay, err := flagOverlay(fs, f)
	if err != nil {
		return nil, configError(err)
	}
	cfg = cfg.Merge(overlay)

	resolver := env.NewResolver()
	resolver.SetWarnFunc(log.Warnf)
	cfg = cfg.Resolve(resolver)

	if err := cfg.Validate(); err != nil {
		return nil, configError(err)
	}

	s, err := suite.Resolve(cfg.Suite)
	if err != nil {
		return nil, configError(err)
	}
	if err := s.Validate(); err != nil {
		return nil, configError(fmt.Errorf("suite %s: %w", s.Name, err))
	}

	rc, err := runnerConfig(cfg, s, f)
	if err != nil {
		return nil, configError(err)
	}
	return &settings{config: cfg, suite: s, runner: rc}, nil
}

// flagOverlay turns the flags the user actually set into a config layer.
func flagOverlay(fs *pflag.FlagSet, f *endpointFlags) (*config.Config, error) {
	if fs.Changed("token") && fs.Changed("api-key") {
		return nil, config.ErrAuthConflict
	}

	overlay := &config.Config{
		Host:   f.host,
		Port:   f.port,
		Token:  f.token,
		APIKey: f.apiKey,
		Suite:  f.suite,
		Proxy:  f.proxy,
		Schema: f.schema,
		Rate:   f.rate,
	}
	if fs.Changed("history") {
		overlay.History = f.history
	}
	if fs.Changed("https") {
		overlay.HTTPS = config.BoolPtr(f.https)
	}
	if fs.Changed("skip-health") {
		overlay.SkipHealth = config.BoolPtr(f.skipHealth)
	}
	if fs.Changed("lenient") {
		overlay.Lenient = config.BoolPtr(f.lenient)
	}
	if f.insecure {
		overlay.ValidateSSL = config.BoolPtr(false)
	}
	overlay.Timeout = config.Duration(f.timeout)
	overlay.ImageTimeout = config.Duration(f.imageTimeout)
	overlay.HealthTimeout = config.Duration(f.healthTimeout)

	if f.rate < 0 {
		return nil, fmt.Errorf("--rate must not be negative")
	}
	return overlay, nil
}

func runnerConfig(cfg *config.Config, s *suite.Suite, f *endpointFlags) (*runner.Config, error) {
	auth, err := cfg.Auth()
	if err != nil {
		return nil, err
	}

	rc := &runner.Config{
		Endpoint: runner.Endpoint{
			Scheme:       cfg.Scheme(),
			Host:         cfg.Host,
			Port:         cfg.Port,
			Auth:         auth,
			HealthPath:   cfg.HealthPath,
			ClassifyPath: cfg.ClassifyPath,
		},
		Timeout:       cfg.Timeout.Std(),
		ImageTimeout:  cfg.ImageTimeout.Std(),
		HealthTimeout: cfg.HealthTimeout.Std(),
		SkipHealth:    cfg.GetSkipHealth(),
		WaitFor:       f.waitFor,
		UserAgent:     cfg.UserAgent,
		ClientVersion: cfg.ClientVersion,
		Headers:       cfg.Headers,
		Insecure:      !cfg.GetValidateSSL(),
		Proxy:         cfg.Proxy,
		Rate:          cfg.Rate,
		Lenient:       cfg.GetLenient(),
		NameFilter:    f.name,
		TagsFilter:    splitList(f.tags),
	}

	schemaPath := cfg.Schema
	if schemaPath == "" {
		schemaPath = s.Schema
	}
	if schemaPath != "" {
		schema, err := assertions.LoadSchema(schemaPath)
		if err != nil {
			return nil, err
		}
		rc.Schema = schema
	}
	return rc, nil
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
