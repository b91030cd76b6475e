package assertions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/suite"
	"github.com/abdul-hamid-achik/classifyprobe/packages/extract"
	"github.com/abdul-hamid-achik/classifyprobe/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluatorFor(body string) *Evaluator {
	return NewEvaluator(extract.New([]byte(body)))
}

func TestExpectType(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		expected  string
		evaluated bool
		passed    bool
	}{
		{"exact", `{"businessType": "retail"}`, "retail", true, true},
		{"case folded", `{"businessType": "Retail"}`, "RETAIL", true, true},
		{"space and underscore", `{"businessType": "Shoe Store"}`, "shoe_store", true, true},
		{"hyphen and underscore", `{"businessType": "shoe-store"}`, "shoe_store", true, true},
		{"mismatch", `{"businessType": "restaurant"}`, "retail", true, false},
		{"absent", `{"comparison": {}}`, "retail", false, false},
		{"not a string", `{"businessType": 7}`, "retail", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := evaluatorFor(tt.body).ExpectType(tt.expected)
			assert.Equal(t, SubjectBusinessType, r.Subject)
			assert.Equal(t, tt.evaluated, r.Evaluated)
			assert.Equal(t, tt.passed, r.Passed)
			assert.Equal(t, tt.evaluated && !tt.passed, r.Failed())
		})
	}

	r := evaluatorFor(`{"businessType": "restaurant"}`).ExpectType("retail")
	assert.Equal(t, `expected businessType "retail", got "restaurant"`, r.Message)
	assert.Equal(t, "restaurant", r.Actual)
}

func TestExpectMatch(t *testing.T) {
	r := evaluatorFor(`{"comparison": {"isMatch": true}}`).ExpectMatch(true)
	assert.True(t, r.Evaluated)
	assert.True(t, r.Passed)

	r = evaluatorFor(`{"businessNameComparison": {"isMatch": true}}`).ExpectMatch(false)
	assert.True(t, r.Failed())
	assert.Equal(t, "expected isMatch false, got true", r.Message)

	r = evaluatorFor(`{"comparison": {"matchScore": 0.2}}`).ExpectMatch(false)
	assert.False(t, r.Evaluated)
	assert.False(t, r.Failed())
	assert.Equal(t, "isMatch not present in response", r.Message)

	r = evaluatorFor(`{"businessType": "retail"}`).ExpectMatch(true)
	assert.False(t, r.Evaluated)
}

func TestEvaluateCase(t *testing.T) {
	match := true
	tc := &suite.TestCase{ExpectedType: "restaurant", ExpectedMatch: &match}

	results := evaluatorFor(`{"businessType": "restaurant", "comparison": {"isMatch": false}}`).EvaluateCase(tc)
	require.Len(t, results, 2)
	assert.True(t, results[0].Passed)
	assert.True(t, results[1].Failed())
	assert.True(t, AnyFailed(results))
	assert.Equal(t, []string{"expected isMatch true, got false"}, FailureMessages(results))

	assert.Empty(t, evaluatorFor(`{}`).EvaluateCase(&suite.TestCase{}))
	assert.False(t, AnyFailed(nil))
}

func TestNewEvaluatorFromResponse(t *testing.T) {
	resp := &http.Response{StatusCode: 200, Body: []byte(`{"businessType": "retail"}`)}
	assert.True(t, NewEvaluatorFromResponse(resp).ExpectType("retail").Passed)
}

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, "shoe_store", NormalizeType("  Shoe - Store "))
	assert.Equal(t, "retail", NormalizeType("RETAIL"))
	assert.Equal(t, "", NormalizeType(""))
}

const classifySchema = `{
  "type": "object",
  "required": ["businessType"],
  "properties": {
    "businessType": {"type": "string"},
    "comparison": {
      "type": "object",
      "properties": {
        "isMatch": {"type": "boolean"},
        "matchScore": {"type": "number", "minimum": 0, "maximum": 1}
      }
    }
  }
}`

func TestSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classify.schema.json")
	require.NoError(t, os.WriteFile(path, []byte(classifySchema), 0644))

	s, err := LoadSchema(path)
	require.NoError(t, err)

	r := s.Validate([]byte(`{"businessType": "retail", "comparison": {"isMatch": true, "matchScore": 0.9}}`))
	assert.True(t, r.Passed)
	assert.Equal(t, SubjectSchema, r.Subject)

	r = s.Validate([]byte(`{"comparison": {"matchScore": 3}}`))
	assert.False(t, r.Passed)
	assert.True(t, r.Failed())
	assert.Contains(t, r.Message, "schema validation failed")
	assert.Contains(t, r.Message, "businessType")
}

func TestLoadSchema_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSchema(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"type": 12}`), 0644))
	_, err = LoadSchema(bad)
	assert.Error(t, err)
}
