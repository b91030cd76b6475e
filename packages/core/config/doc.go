// Package config loads classifyprobe configuration.
//
// Values are layered: DefaultConfig, then the config file
// (classifyprobe.yaml or .json), then a named profile, then CLASSIFYPROBE_*
// environment variables. The CLI applies its flags last.
package config
