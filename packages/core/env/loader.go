package env

import (
	"os"
	"strings"
)

// Prefix is the prefix of environment variables read as configuration.
const Prefix = "CLASSIFYPROBE_"

// LoadSystemEnv returns the process environment. With a non-empty prefix only
// matching variables are returned, keyed without the prefix.
func LoadSystemEnv(prefix string) map[string]string {
	result := make(map[string]string)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
			continue
		}
		if len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
			result[key[len(prefix):]] = value
		}
	}
	return result
}

// MergeVariables merges maps left to right; later sources win.
func MergeVariables(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}
