// Package http provides the HTTP client used to probe the classification API.
//
// It wraps the standard library's http package with:
//   - Per-request timeouts carried by the request context
//   - Bearer and API-key credentials as one mutually exclusive Auth value
//   - Transport failures classified as timeout, refused, DNS or TLS
//   - Response helpers for status classes and body snippets
package http
