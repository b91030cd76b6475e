package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/env"
	"github.com/abdul-hamid-achik/classifyprobe/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, "http://localhost:3000", c.BaseURL())
	assert.Equal(t, 30*time.Second, c.Timeout.Std())
	assert.Equal(t, 90*time.Second, c.ImageTimeout.Std())
	assert.Equal(t, 10*time.Second, c.HealthTimeout.Std())
	assert.Equal(t, "QRIS-Classifier-Test/1.0", c.UserAgent)
	assert.True(t, c.GetValidateSSL())
	assert.NoError(t, c.Validate())
}

func TestFindAndLoadConfig_NoFile(t *testing.T) {
	c, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "classifyprobe.yaml", `
host: api.example.com
port: 443
https: true
token: jwt
timeout: 45s
imageTimeout: 120000
headers:
  X-Trace: "1"
`)

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com:443", c.BaseURL())
	assert.Equal(t, 45*time.Second, c.Timeout.Std())
	assert.Equal(t, 120*time.Second, c.ImageTimeout.Std())
	assert.Equal(t, 10*time.Second, c.HealthTimeout.Std())
	assert.Equal(t, "/api/classify", c.ClassifyPath)
	assert.Equal(t, map[string]string{"X-Trace": "1"}, c.Headers)
	assert.Equal(t, path, c.Source)

	auth, err := c.Auth()
	require.NoError(t, err)
	assert.Equal(t, http.AuthBearer, auth.Scheme)
}

func TestLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".classifyprobe.json", `{"port": 9002, "apiKey": "k", "skipHealth": true}`)

	c, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 9002, c.Port)
	assert.Equal(t, "k", c.APIKey)
	assert.True(t, c.GetSkipHealth())
}

func TestLoadConfig_SearchOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "classifyprobe.json", `{"port": 1111}`)
	writeFile(t, dir, "classifyprobe.yaml", "port: 2222\n")

	c, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 2222, c.Port)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "timeout: soon\n")
	_, err = LoadConfig(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestApplyProfile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "classifyprobe.yaml", `
token: file-token
defaultProfile: local
profiles:
  local:
    port: 9002
    apiKey: key
    suite: local
  production:
    host: api.example.com
    port: 443
    https: true
`)
	c, err := LoadConfig(path)
	require.NoError(t, err)

	local, err := c.ApplyProfile("")
	require.NoError(t, err)
	assert.Equal(t, 9002, local.Port)
	assert.Equal(t, "local", local.Suite)
	assert.Equal(t, "key", local.APIKey)
	assert.Empty(t, local.Token, "choosing an API key clears the inherited token")

	prod, err := c.ApplyProfile("production")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com:443", prod.BaseURL())
	assert.Equal(t, "file-token", prod.Token)

	_, err = c.ApplyProfile("staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local, production")
}

func TestApplyEnv(t *testing.T) {
	c, err := DefaultConfig().ApplyEnv(map[string]string{
		"HOST":          "10.0.0.5",
		"PORT":          "9002",
		"HTTPS":         "true",
		"API_KEY":       "k",
		"IMAGE_TIMEOUT": "2m",
		"RATE":          "2.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://10.0.0.5:9002", c.BaseURL())
	assert.Equal(t, "k", c.APIKey)
	assert.Equal(t, 2*time.Minute, c.ImageTimeout.Std())
	assert.Equal(t, 2.5, c.Rate)

	_, err = DefaultConfig().ApplyEnv(map[string]string{"PORT": "abc"})
	assert.Error(t, err)

	_, err = DefaultConfig().ApplyEnv(map[string]string{"SKIP_HEALTH": "maybe"})
	assert.Error(t, err)
}

func TestMerge_DoesNotMutate(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"A": "1"}

	merged := base.Merge(&Config{Headers: map[string]string{"B": "2"}, Port: 8080})
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged.Headers)
	assert.Equal(t, map[string]string{"A": "1"}, base.Headers)
	assert.Equal(t, 3000, base.Port)
}

func TestResolve(t *testing.T) {
	t.Setenv("CLASSIFYPROBE_TEST_TOKEN", "secret")
	c := DefaultConfig()
	c.Token = "{{$CLASSIFYPROBE_TEST_TOKEN}}"
	c.Headers = map[string]string{"X-Token": "{{$CLASSIFYPROBE_TEST_TOKEN}}"}

	resolved := c.Resolve(env.NewResolver())
	assert.Equal(t, "secret", resolved.Token)
	assert.Equal(t, "secret", resolved.Headers["X-Token"])
	assert.Equal(t, "{{$CLASSIFYPROBE_TEST_TOKEN}}", c.Token)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"both credentials", func(c *Config) { c.Token, c.APIKey = "t", "k" }, "mutually exclusive"},
		{"empty host", func(c *Config) { c.Host = "" }, "host"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "port"},
		{"relative path", func(c *Config) { c.ClassifyPath = "api/classify" }, "classifyPath"},
		{"negative rate", func(c *Config) { c.Rate = -1 }, "rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	c := DefaultConfig()
	c.Token, c.APIKey = "t", "k"
	_, err := c.Auth()
	assert.ErrorIs(t, err, ErrAuthConflict)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classifyprobe.yaml")
	require.NoError(t, Scaffold().SaveConfig(path))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "local", c.DefaultProfile)
	assert.ElementsMatch(t, []string{"local", "production"}, c.ProfileNames())

	prod, err := c.ApplyProfile("production")
	require.NoError(t, err)
	assert.True(t, prod.GetHTTPS())
	assert.Equal(t, "{{$QRIS_TOKEN}}", prod.Token)
}
