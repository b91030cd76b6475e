package extract

import (
	"testing"

	"github.com/abdul-hamid-achik/classifyprobe/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructured(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{`{"businessType": "retail"}`, true},
		{"  {}\n", true},
		{`[1, 2]`, false},
		{`"text"`, false},
		{`OK`, false},
		{``, false},
		{`{"broken": `, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, New([]byte(tt.body)).Structured(), "body: %q", tt.body)
	}
}

func TestKeys_DocumentOrder(t *testing.T) {
	e := New([]byte(`{"success": true, "businessType": "retail", "confidence": 0.9}`))
	assert.Equal(t, []string{"success", "businessType", "confidence"}, e.Keys())
	assert.Nil(t, New([]byte("OK")).Keys())
}

func TestComparison(t *testing.T) {
	t.Run("comparison alias", func(t *testing.T) {
		e := New([]byte(`{"comparison": {"isMatch": true, "matchScore": 0.87, "matchReason": "x"}}`))
		c := e.Comparison()
		require.NotNil(t, c)
		assert.Equal(t, "comparison", c.Field)
		assert.Equal(t, "true", c.IsMatchString())
		assert.Equal(t, "0.87", c.MatchScoreString())
		assert.Equal(t, "x", c.MatchReasonString())
	})

	t.Run("businessNameComparison alias", func(t *testing.T) {
		e := New([]byte(`{"businessNameComparison": {"isMatch": false}}`))
		c := e.Comparison()
		require.NotNil(t, c)
		assert.Equal(t, "businessNameComparison", c.Field)
		require.NotNil(t, c.IsMatch)
		assert.False(t, *c.IsMatch)
		assert.Equal(t, NotAvailable, c.MatchScoreString())
		assert.Equal(t, NotAvailable, c.MatchReasonString())
	})

	t.Run("first alias wins", func(t *testing.T) {
		e := New([]byte(`{"businessNameComparison": {"isMatch": false}, "comparison": {"isMatch": true}}`))
		assert.Equal(t, "comparison", e.Comparison().Field)
	})

	t.Run("non-object value is skipped", func(t *testing.T) {
		e := New([]byte(`{"comparison": "disabled", "businessNameComparison": {"matchScore": 1}}`))
		c := e.Comparison()
		require.NotNil(t, c)
		assert.Equal(t, "businessNameComparison", c.Field)
		assert.Equal(t, "1", c.MatchScoreString())

		assert.Nil(t, New([]byte(`{"comparison": null}`)).Comparison())
		assert.Nil(t, New([]byte(`{"comparison": [1]}`)).Comparison())
	})

	t.Run("absent", func(t *testing.T) {
		assert.Nil(t, New([]byte(`{"businessType": "retail"}`)).Comparison())
		assert.Nil(t, New([]byte(`OK`)).Comparison())
	})

	t.Run("wrong field types are not available", func(t *testing.T) {
		c := New([]byte(`{"comparison": {"isMatch": "yes", "matchScore": "high", "matchReason": 42}}`)).Comparison()
		require.NotNil(t, c)
		assert.Nil(t, c.IsMatch)
		assert.Nil(t, c.MatchScore)
		assert.Equal(t, "42", c.MatchReasonString())
	})

	t.Run("empty object", func(t *testing.T) {
		c := New([]byte(`{"comparison": {}}`)).Comparison()
		require.NotNil(t, c)
		assert.Equal(t, NotAvailable, c.IsMatchString())
	})
}

func TestNilComparisonStrings(t *testing.T) {
	var c *Comparison
	assert.Equal(t, NotAvailable, c.IsMatchString())
	assert.Equal(t, NotAvailable, c.MatchScoreString())
	assert.Equal(t, NotAvailable, c.MatchReasonString())
}

func TestBusinessType(t *testing.T) {
	bt, ok := New([]byte(`{"businessType": "shoe_store"}`)).BusinessType()
	assert.True(t, ok)
	assert.Equal(t, "shoe_store", bt)

	_, ok = New([]byte(`{"businessType": ""}`)).BusinessType()
	assert.False(t, ok)
	_, ok = New([]byte(`{"businessType": 3}`)).BusinessType()
	assert.False(t, ok)
	_, ok = New([]byte(`{}`)).BusinessType()
	assert.False(t, ok)
}

func TestGet(t *testing.T) {
	e := New([]byte(`{"metadata": {"requestId": "test_req_1"}}`))
	v, ok := e.Get("metadata.requestId")
	assert.True(t, ok)
	assert.Equal(t, "test_req_1", v)

	_, ok = e.Get("metadata.missing")
	assert.False(t, ok)
}

func TestErrorDetails(t *testing.T) {
	assert.Equal(t, "model unavailable", New([]byte(`{"error": "model unavailable"}`)).ErrorDetails())
	assert.Equal(t, `{"code":500,"retry":false}`, New([]byte("{\n  \"code\":500,\n  \"retry\":false\n}")).ErrorDetails())
	assert.Equal(t, "", New([]byte("<html>Bad Gateway</html>")).ErrorDetails())
}

func TestFromResponse(t *testing.T) {
	resp := &http.Response{StatusCode: 200, Body: []byte(`{"comparison": {"isMatch": true}}`)}
	assert.NotNil(t, FromResponse(resp).Comparison())
}
