package http

import "fmt"

// APIKeyHeader is the header that carries an API key credential.
const APIKeyHeader = "X-API-Key"

// AuthScheme selects how credentials are attached to a request.
type AuthScheme int

const (
	AuthNone AuthScheme = iota
	AuthBearer
	AuthAPIKey
)

func (s AuthScheme) String() string {
	switch s {
	case AuthBearer:
		return "bearer"
	case AuthAPIKey:
		return "api-key"
	default:
		return "none"
	}
}

// Auth is a credential for one of the supported schemes. The zero value
// sends no credentials.
type Auth struct {
	Scheme     AuthScheme
	Credential string
}

// NoAuth returns an Auth that attaches nothing.
func NoAuth() Auth {
	return Auth{Scheme: AuthNone}
}

// Bearer returns an Auth that sends "Authorization: Bearer <token>".
func Bearer(token string) Auth {
	return Auth{Scheme: AuthBearer, Credential: token}
}

// APIKey returns an Auth that sends "X-API-Key: <key>".
func APIKey(key string) Auth {
	return Auth{Scheme: AuthAPIKey, Credential: key}
}

// ResolveAuth picks a scheme from a token and an API key. Supplying both is
// an error because the schemes are mutually exclusive.
func ResolveAuth(token, apiKey string) (Auth, error) {
	switch {
	case token != "" && apiKey != "":
		return Auth{}, fmt.Errorf("token and API key are mutually exclusive")
	case token != "":
		return Bearer(token), nil
	case apiKey != "":
		return APIKey(apiKey), nil
	default:
		return NoAuth(), nil
	}
}

// Apply sets the auth header and removes the header of the other scheme.
func (a Auth) Apply(headers map[string]string) {
	switch a.Scheme {
	case AuthBearer:
		delete(headers, APIKeyHeader)
		headers["Authorization"] = "Bearer " + a.Credential
	case AuthAPIKey:
		delete(headers, "Authorization")
		headers[APIKeyHeader] = a.Credential
	}
}

// String describes the scheme without leaking the credential.
func (a Auth) String() string {
	if a.Scheme == AuthNone {
		return "none"
	}
	return fmt.Sprintf("%s (%s)", a.Scheme, redact(a.Credential))
}

func redact(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
