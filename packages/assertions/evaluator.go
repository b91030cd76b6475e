package assertions

import (
	"fmt"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/suite"
	"github.com/abdul-hamid-achik/classifyprobe/packages/extract"
	"github.com/abdul-hamid-achik/classifyprobe/packages/http"
)

// Result is the outcome of one check against a response. When Evaluated is
// false the observed value was missing and Passed carries no meaning.
type Result struct {
	Subject   string `json:"subject"`
	Operator  string `json:"operator"`
	Expected  any    `json:"expected"`
	Actual    any    `json:"actual,omitempty"`
	Passed    bool   `json:"passed"`
	Evaluated bool   `json:"evaluated"`
	Message   string `json:"message,omitempty"`
}

// Failed reports an evaluated check that did not pass.
func (r *Result) Failed() bool {
	return r.Evaluated && !r.Passed
}

const (
	SubjectBusinessType = "businessType"
	SubjectIsMatch      = "isMatch"
	SubjectSchema       = "schema"
)

type Evaluator struct {
	extractor *extract.Extractor
}

func NewEvaluator(ex *extract.Extractor) *Evaluator {
	return &Evaluator{extractor: ex}
}

func NewEvaluatorFromResponse(resp *http.Response) *Evaluator {
	return NewEvaluator(extract.FromResponse(resp))
}

// ExpectType compares the response business type with expected after
// normalizing both.
func (e *Evaluator) ExpectType(expected string) *Result {
	result := &Result{
		Subject:  SubjectBusinessType,
		Operator: "equals",
		Expected: expected,
	}

	actual, ok := e.extractor.BusinessType()
	if !ok {
		result.Message = "businessType not present in response"
		return result
	}
	result.Actual = actual
	result.Evaluated = true
	result.Passed = NormalizeType(actual) == NormalizeType(expected)
	if !result.Passed {
		result.Message = fmt.Sprintf("expected businessType %q, got %q", expected, actual)
	}
	return result
}

// ExpectMatch compares comparison.isMatch with expected.
func (e *Evaluator) ExpectMatch(expected bool) *Result {
	result := &Result{
		Subject:  SubjectIsMatch,
		Operator: "equals",
		Expected: expected,
	}

	c := e.extractor.Comparison()
	if c == nil || c.IsMatch == nil {
		result.Message = "isMatch not present in response"
		return result
	}
	result.Actual = *c.IsMatch
	result.Evaluated = true
	result.Passed = *c.IsMatch == expected
	if !result.Passed {
		result.Message = fmt.Sprintf("expected isMatch %t, got %t", expected, *c.IsMatch)
	}
	return result
}

// EvaluateCase runs every expectation the case declares.
func (e *Evaluator) EvaluateCase(tc *suite.TestCase) []*Result {
	var results []*Result
	if tc.ExpectedType != "" {
		results = append(results, e.ExpectType(tc.ExpectedType))
	}
	if tc.ExpectedMatch != nil {
		results = append(results, e.ExpectMatch(*tc.ExpectedMatch))
	}
	return results
}

// AnyFailed reports whether one of the results was evaluated and failed.
func AnyFailed(results []*Result) bool {
	for _, r := range results {
		if r.Failed() {
			return true
		}
	}
	return false
}

// FailureMessages returns the messages of the failed results.
func FailureMessages(results []*Result) []string {
	var msgs []string
	for _, r := range results {
		if r.Failed() {
			msgs = append(msgs, r.Message)
		}
	}
	return msgs
}
