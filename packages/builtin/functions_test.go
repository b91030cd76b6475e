package builtin

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Call(t *testing.T) {
	r := NewRegistry()
	r.now = func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }

	tests := []struct {
		expr string
		want any
	}{
		{"now()", "2025-03-14T09:26:53Z"},
		{"timestamp()", int64(1741944413)},
		{"timestampMs()", int64(1741944413000)},
		{"date()", "2025-03-14"},
		{`date("20060102")`, "20250314"},
		{`base64("hello")`, base64.StdEncoding.EncodeToString([]byte("hello"))},
		{"base64()", ""},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, ok := r.Call(tt.expr)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_CallUnknown(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Call("nope()")
	assert.False(t, ok)

	_, ok = r.Call("not a call")
	assert.False(t, ok)
}

func TestRegistry_UUID(t *testing.T) {
	r := NewRegistry()
	got, ok := r.Call("uuid()")
	require.True(t, ok)

	_, err := uuid.Parse(got.(string))
	assert.NoError(t, err)
}

func TestRegistry_Random(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 50; i++ {
		got, ok := r.Call("random(3, 5)")
		require.True(t, ok)
		n := got.(int)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 5)
	}

	got, _ := r.Call("random(9, 9)")
	assert.Equal(t, 9, got)
}

func TestRegistry_RandomString(t *testing.T) {
	r := NewRegistry()

	got, _ := r.Call("randomString(12)")
	assert.Len(t, got, 12)

	got, _ = r.Call("randomString()")
	assert.Len(t, got, 16)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register("index", func(_ []string) any { return 7 })

	got, ok := r.Call("index()")
	require.True(t, ok)
	assert.Equal(t, 7, got)
	assert.Contains(t, r.Names(), "index")
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b, c", "d"}, parseArgs(`a, "b, c", 'd'`))
	assert.Nil(t, parseArgs(""))
}
