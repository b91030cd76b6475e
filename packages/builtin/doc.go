// Package builtin provides the template functions available in suite files
// and config values.
//
// Available functions:
//   - uuid(): random UUID v4
//   - now(): current time, RFC 3339
//   - timestamp(), timestampMs(): Unix time in seconds or milliseconds
//   - date(layout): current UTC date, "2006-01-02" by default
//   - random(min, max): random integer in range
//   - randomString(length): random alphanumeric string
//   - base64(value): base64 encode a string
//
// Functions are invoked as {{uuid()}} inside request ids and config values.
package builtin
