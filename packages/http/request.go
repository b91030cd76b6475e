package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
	Timeout time.Duration
	Auth    Auth
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

// NewJSONRequest builds a POST request whose body is payload encoded as JSON.
func NewJSONRequest(requestURL string, payload any) (*Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	r := NewRequest(http.MethodPost, requestURL)
	r.SetHeader("Content-Type", "application/json")
	r.SetBody(string(data))
	return r, nil
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	return r
}

func (r *Request) SetTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

// SetAuth records the credential and writes its header.
func (r *Request) SetAuth(a Auth) *Request {
	r.Auth = a
	a.Apply(r.Headers)
	return r
}

// RedactedHeaders returns a copy of the headers safe to print or persist.
func (r *Request) RedactedHeaders() map[string]string {
	out := make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		switch k {
		case "Authorization", APIKeyHeader:
			out[k] = redact(v)
		default:
			out[k] = v
		}
	}
	return out
}
