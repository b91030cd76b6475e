// Package env loads .env files and the CLASSIFYPROBE_* environment, and
// expands {{variable}}, {{$ENV_VAR}} and {{function()}} references in suite
// and config values.
package env
