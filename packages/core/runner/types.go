package runner

import (
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/assertions"
	"github.com/abdul-hamid-achik/classifyprobe/packages/extract"
	"github.com/abdul-hamid-achik/classifyprobe/packages/http"
)

// Outcome is the verdict category of a test case.
type Outcome string

const (
	OutcomePassed       Outcome = "passed"
	OutcomeFailed       Outcome = "failed"
	OutcomeInconclusive Outcome = "inconclusive"
	OutcomeSkipped      Outcome = "skipped"
)

// Reason explains a failed or skipped verdict.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonConnection     Reason = "connection error"
	ReasonTimeout        Reason = "timeout"
	ReasonAuthentication Reason = "authentication"
	ReasonNotFound       Reason = "endpoint not found"
	ReasonStatus         Reason = "non-2xx status"
	ReasonUnparseable    Reason = "unparseable body"
	ReasonSchema         Reason = "schema mismatch"
	ReasonExpectation    Reason = "expectation mismatch"
	ReasonInvalidRequest Reason = "invalid request"
	ReasonFiltered       Reason = "filtered"
	ReasonSkipRequested  Reason = "skip requested"
	ReasonAborted        Reason = "run aborted"
	ReasonInterrupted    Reason = "interrupted"
)

// Class groups fatal reasons by the kind of problem: "transport",
// "authentication" or "routing". Other reasons have no class.
func (r Reason) Class() string {
	switch r {
	case ReasonConnection, ReasonTimeout:
		return "transport"
	case ReasonAuthentication:
		return "authentication"
	case ReasonNotFound:
		return "routing"
	case ReasonInterrupted:
		return "interrupted"
	default:
		return ""
	}
}

// Endpoint is the service under test.
type Endpoint struct {
	Scheme       string    `json:"scheme"`
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	Auth         http.Auth `json:"-"`
	HealthPath   string    `json:"healthPath"`
	ClassifyPath string    `json:"classifyPath"`
}

func (e Endpoint) BaseURL() string {
	scheme := e.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, e.Host, e.Port)
}

func (e Endpoint) HealthURL() string {
	return e.BaseURL() + e.HealthPath
}

func (e Endpoint) ClassifyURL() string {
	return e.BaseURL() + e.ClassifyPath
}

// Verdict is the result of one test case. It is not modified once emitted.
type Verdict struct {
	Index        int                  `json:"index"`
	Name         string               `json:"name"`
	BusinessName string               `json:"businessName"`
	RequestID    string               `json:"requestId,omitempty"`
	HasImage     bool                 `json:"hasImage"`
	Outcome      Outcome              `json:"outcome"`
	Fatal        bool                 `json:"fatal,omitempty"`
	Reason       Reason               `json:"reason,omitempty"`
	StatusCode   int                  `json:"statusCode,omitempty"`
	Duration     time.Duration        `json:"duration"`
	Comparison   *extract.Comparison  `json:"comparison,omitempty"`
	BusinessType string               `json:"businessType,omitempty"`
	ResponseKeys []string             `json:"responseKeys,omitempty"`
	Expectations []*assertions.Result `json:"expectations,omitempty"`
	Message      string               `json:"message,omitempty"`
	Err          error                `json:"-"`
}

func (v *Verdict) Passed() bool       { return v.Outcome == OutcomePassed }
func (v *Verdict) Failed() bool       { return v.Outcome == OutcomeFailed }
func (v *Verdict) Inconclusive() bool { return v.Outcome == OutcomeInconclusive }
func (v *Verdict) Skipped() bool      { return v.Outcome == OutcomeSkipped }

// HealthResult is the advisory health probe. It never fails a run.
type HealthResult struct {
	Checked    bool          `json:"checked"`
	Healthy    bool          `json:"healthy"`
	StatusCode int           `json:"statusCode,omitempty"`
	Duration   time.Duration `json:"duration"`
	Message    string        `json:"message,omitempty"`
}

// RunResult aggregates the verdicts of one run.
type RunResult struct {
	Suite        string        `json:"suite"`
	Endpoint     Endpoint      `json:"endpoint"`
	Health       HealthResult  `json:"health"`
	Verdicts     []*Verdict    `json:"verdicts"`
	Passed       int           `json:"passed"`
	Failed       int           `json:"failed"`
	Inconclusive int           `json:"inconclusive"`
	Skipped      int           `json:"skipped"`
	Aborted      bool          `json:"aborted"`
	AbortReason  Reason        `json:"abortReason,omitempty"`
	Success      bool          `json:"success"`
	StartedAt    time.Time     `json:"startedAt"`
	Duration     time.Duration `json:"duration"`
}

func (r *RunResult) Total() int {
	return len(r.Verdicts)
}

// tally recomputes the counters and Success from the verdicts.
func (r *RunResult) tally() {
	r.Passed, r.Failed, r.Inconclusive, r.Skipped = 0, 0, 0, 0
	for _, v := range r.Verdicts {
		switch v.Outcome {
		case OutcomePassed:
			r.Passed++
		case OutcomeFailed:
			r.Failed++
		case OutcomeInconclusive:
			r.Inconclusive++
		case OutcomeSkipped:
			r.Skipped++
		}
	}
	r.Success = r.Failed == 0 && r.AbortReason != ReasonInterrupted
}
