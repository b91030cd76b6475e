package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/assertions"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/env"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/suite"
	"github.com/abdul-hamid-achik/classifyprobe/packages/extract"
	"github.com/abdul-hamid-achik/classifyprobe/packages/http"
	"github.com/abdul-hamid-achik/classifyprobe/packages/logger"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultImageTimeout  = 90 * time.Second
	DefaultHealthTimeout = 10 * time.Second
	DefaultUserAgent     = "QRIS-Classifier-Test/1.0"

	// errorSnippetLen bounds the body text quoted for non-JSON error responses.
	errorSnippetLen = 200
)

type Config struct {
	Endpoint      Endpoint
	Timeout       time.Duration
	ImageTimeout  time.Duration
	HealthTimeout time.Duration
	SkipHealth    bool
	WaitFor       time.Duration
	UserAgent     string
	ClientVersion string
	Headers       map[string]string
	Insecure      bool
	Proxy         string
	Rate          float64
	Lenient       bool
	NameFilter    string
	TagsFilter    []string
	Schema        *assertions.Schema
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.ImageTimeout <= 0 {
		out.ImageTimeout = DefaultImageTimeout
	}
	if out.HealthTimeout <= 0 {
		out.HealthTimeout = DefaultHealthTimeout
	}
	if out.UserAgent == "" {
		out.UserAgent = DefaultUserAgent
	}
	if out.Endpoint.Host == "" {
		out.Endpoint.Host = "localhost"
	}
	if out.Endpoint.Port == 0 {
		out.Endpoint.Port = 3000
	}
	if out.Endpoint.HealthPath == "" {
		out.Endpoint.HealthPath = "/api/health"
	}
	if out.Endpoint.ClassifyPath == "" {
		out.Endpoint.ClassifyPath = "/api/classify"
	}
	return &out
}

type Runner struct {
	client    *http.Client
	resolver  *env.Resolver
	config    *Config
	logger    logger.Logger
	observers observers
	limiter   *rate.Limiter
}

type Option func(*Runner)

func WithHTTPClient(c *http.Client) Option {
	return func(r *Runner) {
		r.client = c
	}
}

func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithObserver adds an observer; it may be given more than once.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observers = append(r.observers, o)
	}
}

func WithResolver(res *env.Resolver) Option {
	return func(r *Runner) {
		r.resolver = res
	}
}

func NewRunner(cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg = cfg.withDefaults()

	r := &Runner{
		config:   cfg,
		resolver: env.NewResolver(),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		clientOpts := []http.ClientOption{
			http.WithTimeout(cfg.Timeout),
			http.WithValidateSSL(!cfg.Insecure),
		}
		if cfg.Proxy != "" {
			clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
		}
		r.client = http.NewClient(clientOpts...)
	}
	if cfg.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	return r
}

// Run executes the suite against the configured endpoint.
func Run(ctx context.Context, cfg *Config, s *suite.Suite, opts ...Option) *RunResult {
	return NewRunner(cfg, opts...).Run(ctx, s)
}

// Run sends the suite's cases one at a time, in order. Failures never
// surface as errors: each becomes a Verdict, and a fatal verdict aborts the
// remaining cases.
func (r *Runner) Run(ctx context.Context, s *suite.Suite) *RunResult {
	if s == nil {
		s = &suite.Suite{}
	}
	start := time.Now()
	result := &RunResult{
		Suite:     s.Name,
		Endpoint:  r.config.Endpoint,
		Verdicts:  make([]*Verdict, 0, len(s.Cases)),
		StartedAt: start,
	}

	r.observers.OnRunStart(s, r.config.Endpoint)
	r.logger.Debugf("running suite %q (%d cases) against %s", s.Name, len(s.Cases), r.config.Endpoint.BaseURL())

	if !r.config.SkipHealth {
		result.Health = r.checkHealth(ctx)
		if result.Health.Healthy {
			r.logger.Debugf("%s", result.Health.Message)
		} else {
			r.logger.Warnf("%s", result.Health.Message)
		}
		r.observers.OnHealth(&result.Health)
	}

	for i := range s.Cases {
		tc := &s.Cases[i]
		index := i + 1

		var v *Verdict
		switch {
		case result.Aborted:
			v = skipped(index, tc, ReasonAborted, fmt.Sprintf("not run: aborted after %s", result.AbortReason))
		case ctx.Err() != nil:
			r.abort(result, ReasonInterrupted)
			v = skipped(index, tc, ReasonInterrupted, "not run: interrupted")
		case tc.Skip != "":
			v = skipped(index, tc, ReasonSkipRequested, tc.Skip)
		case !r.shouldRun(tc):
			v = skipped(index, tc, ReasonFiltered, "excluded by filter")
		default:
			r.observers.OnCaseStart(index, len(s.Cases), tc)
			v = r.runCase(ctx, index, tc)
			if v.Fatal {
				r.abort(result, v.Reason)
			} else if v.Reason == ReasonInterrupted {
				r.abort(result, ReasonInterrupted)
			}
		}

		result.Verdicts = append(result.Verdicts, v)
		r.observers.OnVerdict(v)
	}

	result.tally()
	result.Duration = time.Since(start)
	return result
}

func (r *Runner) abort(result *RunResult, reason Reason) {
	if result.Aborted {
		return
	}
	result.Aborted = true
	result.AbortReason = reason
	r.logger.Errorf("run aborted: %s", reason)
}

func skipped(index int, tc *suite.TestCase, reason Reason, msg string) *Verdict {
	return &Verdict{
		Index:        index,
		Name:         tc.Name,
		BusinessName: tc.BusinessName,
		HasImage:     tc.HasImage(),
		Outcome:      OutcomeSkipped,
		Reason:       reason,
		Message:      msg,
	}
}

func (r *Runner) runCase(ctx context.Context, index int, tc *suite.TestCase) *Verdict {
	v := &Verdict{
		Index:        index,
		Name:         tc.Name,
		BusinessName: tc.BusinessName,
		HasImage:     tc.HasImage(),
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			v.Outcome = OutcomeSkipped
			v.Reason = ReasonInterrupted
			v.Message = "not run: interrupted"
			return v
		}
	}

	req, requestID, err := r.buildRequest(index, tc)
	v.RequestID = requestID
	if err != nil {
		v.Outcome = OutcomeFailed
		v.Reason = ReasonInvalidRequest
		v.Message = err.Error()
		v.Err = err
		return v
	}

	r.logger.Debugf("POST %s (case %d, timeout %v)", req.URL, index, req.Timeout)
	r.logger.Tracef("headers: %v", req.RedactedHeaders())

	start := time.Now()
	resp, err := r.client.Do(ctx, req)
	v.Duration = time.Since(start)
	if err != nil {
		r.classifyError(ctx, v, req, err)
		return v
	}

	v.Duration = resp.Duration
	v.StatusCode = resp.StatusCode
	r.logger.Debugf("HTTP %d in %v", resp.StatusCode, resp.Duration)
	r.logger.Tracef("body: %s", resp.Snippet(2048))

	r.classifyResponse(v, resp)
	if !r.config.Lenient {
		r.checkExpectations(v, resp, tc)
	}
	return v
}

// classifyError turns a request error into a verdict. Network failures are
// fatal; cancellation of the run is not.
func (r *Runner) classifyError(ctx context.Context, v *Verdict, req *http.Request, err error) {
	v.Err = err
	if ctx.Err() != nil {
		v.Outcome = OutcomeSkipped
		v.Reason = ReasonInterrupted
		v.Message = "interrupted"
		return
	}

	var te *http.TransportError
	if !errors.As(err, &te) {
		v.Outcome = OutcomeFailed
		v.Reason = ReasonInvalidRequest
		v.Message = err.Error()
		return
	}

	v.Outcome = OutcomeFailed
	v.Fatal = true
	if te.Timeout() {
		v.Reason = ReasonTimeout
		v.Message = fmt.Sprintf("request timeout after %v - server may be overloaded", req.Timeout)
		return
	}
	v.Reason = ReasonConnection
	v.Message = fmt.Sprintf("connection failed (%s) - is the server running?", te.Kind)
}

func (r *Runner) classifyResponse(v *Verdict, resp *http.Response) {
	switch {
	case resp.IsAuthError():
		v.Outcome = OutcomeFailed
		v.Fatal = true
		v.Reason = ReasonAuthentication
		v.Message = fmt.Sprintf("authentication required (HTTP %d) - provide a valid token or API key", resp.StatusCode)
		return
	case resp.IsNotFound():
		v.Outcome = OutcomeFailed
		v.Fatal = true
		v.Reason = ReasonNotFound
		v.Message = "API endpoint not found - check URL and deployment"
		return
	case !resp.IsSuccess():
		v.Outcome = OutcomeFailed
		v.Reason = ReasonStatus
		details := extract.FromResponse(resp).ErrorDetails()
		if details == "" {
			details = resp.Snippet(errorSnippetLen)
		}
		v.Message = fmt.Sprintf("API error %d: %s", resp.StatusCode, details)
		return
	}

	ex := extract.FromResponse(resp)
	if !ex.Structured() {
		v.Outcome = OutcomeFailed
		v.Reason = ReasonUnparseable
		v.Message = fmt.Sprintf("response is not a JSON object: %s", resp.Snippet(errorSnippetLen))
		return
	}

	v.ResponseKeys = ex.Keys()
	if bt, ok := ex.BusinessType(); ok {
		v.BusinessType = bt
	}

	if r.config.Schema != nil {
		res := r.config.Schema.Validate(resp.Body)
		v.Expectations = append(v.Expectations, res)
		if !res.Passed {
			v.Outcome = OutcomeFailed
			v.Reason = ReasonSchema
			v.Message = res.Message
			return
		}
	}

	if c := ex.Comparison(); c != nil {
		v.Outcome = OutcomePassed
		v.Comparison = c
		return
	}

	v.Outcome = OutcomeInconclusive
	v.Message = fmt.Sprintf("business name comparison feature NOT found; available fields: [%s]",
		strings.Join(v.ResponseKeys, ", "))
}

// checkExpectations can only turn a passed or inconclusive verdict into a
// failed one.
func (r *Runner) checkExpectations(v *Verdict, resp *http.Response, tc *suite.TestCase) {
	if !tc.HasExpectations() || (v.Outcome != OutcomePassed && v.Outcome != OutcomeInconclusive) {
		return
	}

	results := assertions.NewEvaluatorFromResponse(resp).EvaluateCase(tc)
	v.Expectations = append(v.Expectations, results...)
	for _, res := range results {
		if !res.Evaluated {
			r.logger.Debugf("case %d: %s (not evaluated)", v.Index, res.Message)
		}
	}

	if assertions.AnyFailed(results) {
		v.Outcome = OutcomeFailed
		v.Reason = ReasonExpectation
		v.Message = strings.Join(assertions.FailureMessages(results), "; ")
	}
}
