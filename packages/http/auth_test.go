package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAuth(t *testing.T) {
	t.Run("token selects bearer", func(t *testing.T) {
		a, err := ResolveAuth("jwt", "")
		require.NoError(t, err)
		assert.Equal(t, AuthBearer, a.Scheme)
	})

	t.Run("api key selects api-key", func(t *testing.T) {
		a, err := ResolveAuth("", "qris_admin_default_key")
		require.NoError(t, err)
		assert.Equal(t, AuthAPIKey, a.Scheme)
	})

	t.Run("neither selects none", func(t *testing.T) {
		a, err := ResolveAuth("", "")
		require.NoError(t, err)
		assert.Equal(t, AuthNone, a.Scheme)
	})

	t.Run("both is an error", func(t *testing.T) {
		_, err := ResolveAuth("jwt", "key")
		assert.Error(t, err)
	})
}

func TestAuth_Apply(t *testing.T) {
	t.Run("bearer", func(t *testing.T) {
		headers := map[string]string{APIKeyHeader: "stale"}
		Bearer("abc").Apply(headers)
		assert.Equal(t, "Bearer abc", headers["Authorization"])
		assert.NotContains(t, headers, APIKeyHeader)
	})

	t.Run("api key", func(t *testing.T) {
		headers := map[string]string{"Authorization": "Bearer stale"}
		APIKey("key123").Apply(headers)
		assert.Equal(t, "key123", headers[APIKeyHeader])
		assert.NotContains(t, headers, "Authorization")
	})

	t.Run("none", func(t *testing.T) {
		headers := map[string]string{}
		NoAuth().Apply(headers)
		assert.Empty(t, headers)
	})
}

func TestAuth_StringRedacts(t *testing.T) {
	assert.Equal(t, "none", NoAuth().String())
	assert.Equal(t, "bearer (eyJh****)", Bearer("eyJhbGciOi").String())
	assert.Equal(t, "api-key (****)", APIKey("abc").String())
}

func TestRequest_RedactedHeaders(t *testing.T) {
	req := NewRequest("POST", "http://localhost:3000/api/classify")
	req.SetHeader("Content-Type", "application/json")
	req.SetAuth(APIKey("qris_admin_default_key"))

	redacted := req.RedactedHeaders()
	assert.Equal(t, "application/json", redacted["Content-Type"])
	assert.Equal(t, "qris****", redacted[APIKeyHeader])
	assert.Equal(t, "qris_admin_default_key", req.Headers[APIKeyHeader])
}

func TestNewJSONRequest(t *testing.T) {
	req, err := NewJSONRequest("http://localhost:3000/api/classify", map[string]any{"businessName": "Toko"})
	require.NoError(t, err)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "application/json", req.Headers["Content-Type"])
	assert.JSONEq(t, `{"businessName":"Toko"}`, req.Body)
}
