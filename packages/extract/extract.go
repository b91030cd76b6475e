package extract

import (
	"bytes"
	"strconv"

	"github.com/abdul-hamid-achik/classifyprobe/packages/http"
	"github.com/tidwall/gjson"
)

// ComparisonAliases are the response fields that may carry the business name
// comparison, in lookup order.
var ComparisonAliases = []string{"comparison", "businessNameComparison"}

// NotAvailable is printed for comparison fields the response omits.
const NotAvailable = "N/A"

// Extractor reads classify responses.
type Extractor struct {
	body       []byte
	root       gjson.Result
	structured bool
}

func New(body []byte) *Extractor {
	e := &Extractor{body: body}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' && gjson.ValidBytes(trimmed) {
		e.root = gjson.ParseBytes(trimmed)
		e.structured = true
	}
	return e
}

func FromResponse(resp *http.Response) *Extractor {
	return New(resp.Body)
}

// Structured reports whether the body is a JSON object. Arrays, scalars and
// non-JSON text are not.
func (e *Extractor) Structured() bool {
	return e.structured
}

// Keys returns the top-level keys of the body in document order.
func (e *Extractor) Keys() []string {
	if !e.structured {
		return nil
	}
	var keys []string
	e.root.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// Get returns the value at a gjson path.
func (e *Extractor) Get(path string) (any, bool) {
	if !e.structured {
		return nil, false
	}
	r := e.root.Get(path)
	if !r.Exists() {
		return nil, false
	}
	return r.Value(), true
}

// BusinessType returns the "businessType" field when it is a non-empty string.
func (e *Extractor) BusinessType() (string, bool) {
	if !e.structured {
		return "", false
	}
	r := e.root.Get("businessType")
	if r.Type != gjson.String || r.Str == "" {
		return "", false
	}
	return r.Str, true
}

// Comparison returns the first alias that holds a JSON object, or nil.
func (e *Extractor) Comparison() *Comparison {
	if !e.structured {
		return nil
	}
	for _, alias := range ComparisonAliases {
		r := e.root.Get(alias)
		if !r.IsObject() {
			continue
		}
		return parseComparison(alias, r)
	}
	return nil
}

// ErrorDetails returns a compact rendering of a JSON error body, or "" when
// the body is not JSON.
func (e *Extractor) ErrorDetails() string {
	trimmed := bytes.TrimSpace(e.body)
	if len(trimmed) == 0 || !gjson.ValidBytes(trimmed) {
		return ""
	}
	r := gjson.ParseBytes(trimmed)
	if r.IsObject() {
		for _, key := range []string{"error", "message", "detail"} {
			if v := r.Get(key); v.Type == gjson.String && v.Str != "" {
				return v.Str
			}
		}
	}
	var buf bytes.Buffer
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		buf.Write(bytes.TrimSpace(line))
	}
	return buf.String()
}

// Comparison is the business name comparison substructure. Nil fields were
// absent or had an unexpected type.
type Comparison struct {
	Field       string   `json:"field"`
	IsMatch     *bool    `json:"isMatch,omitempty"`
	MatchScore  *float64 `json:"matchScore,omitempty"`
	MatchReason *string  `json:"matchReason,omitempty"`
}

func parseComparison(field string, r gjson.Result) *Comparison {
	c := &Comparison{Field: field}

	switch m := r.Get("isMatch"); m.Type {
	case gjson.True, gjson.False:
		b := m.Bool()
		c.IsMatch = &b
	}

	if s := r.Get("matchScore"); s.Type == gjson.Number {
		f := s.Float()
		c.MatchScore = &f
	}

	switch reason := r.Get("matchReason"); reason.Type {
	case gjson.String:
		str := reason.Str
		c.MatchReason = &str
	case gjson.Null:
	default:
		if reason.Exists() {
			raw := reason.Raw
			c.MatchReason = &raw
		}
	}

	return c
}

func (c *Comparison) IsMatchString() string {
	if c == nil || c.IsMatch == nil {
		return NotAvailable
	}
	return strconv.FormatBool(*c.IsMatch)
}

func (c *Comparison) MatchScoreString() string {
	if c == nil || c.MatchScore == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*c.MatchScore, 'f', -1, 64)
}

func (c *Comparison) MatchReasonString() string {
	if c == nil || c.MatchReason == nil {
		return NotAvailable
	}
	return *c.MatchReason
}
