// Package metrics collects per-case timings from classify runs and exports
// them as JSON or in the Prometheus text format.
package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/runner"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/suite"
)

const (
	// Latencies are recorded in microseconds between 1us and 10 minutes.
	histogramMin     = 1
	histogramMax     = 600_000_000
	histogramSigFigs = 3
)

// CaseMetrics is recorded for every case that sent a request.
type CaseMetrics struct {
	Suite      string    `json:"suite"`
	CaseName   string    `json:"case_name"`
	HasImage   bool      `json:"has_image"`
	StatusCode int       `json:"status_code"`
	DurationMs float64   `json:"duration_ms"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// AggregateMetrics summarizes every recorded case.
type AggregateMetrics struct {
	TotalRequests     int64                     `json:"total_requests"`
	PassedCount       int64                     `json:"passed_count"`
	FailedCount       int64                     `json:"failed_count"`
	InconclusiveCount int64                     `json:"inconclusive_count"`
	SkippedCount      int64                     `json:"skipped_count"`
	AbortedRuns       int64                     `json:"aborted_runs"`
	TotalDurationMs   float64                   `json:"total_duration_ms"`
	MinDurationMs     float64                   `json:"min_duration_ms"`
	MaxDurationMs     float64                   `json:"max_duration_ms"`
	AvgDurationMs     float64                   `json:"avg_duration_ms"`
	P50DurationMs     float64                   `json:"p50_duration_ms"`
	P95DurationMs     float64                   `json:"p95_duration_ms"`
	P99DurationMs     float64                   `json:"p99_duration_ms"`
	StatusCodes       map[int]int64             `json:"status_codes"`
	ByCase            map[string]*CaseAggregate `json:"by_case"`
}

// CaseAggregate summarizes one case across runs.
type CaseAggregate struct {
	Name          string  `json:"name"`
	TotalRequests int64   `json:"total_requests"`
	PassedCount   int64   `json:"passed_count"`
	FailedCount   int64   `json:"failed_count"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	MinDurationMs float64 `json:"min_duration_ms"`
	MaxDurationMs float64 `json:"max_duration_ms"`
}

// Exporter is the interface for metrics exporters
type Exporter interface {
	// Export writes the aggregate to the exporter's destination.
	Export(metrics *AggregateMetrics) error

	// ExportSingle receives each case as it is recorded.
	ExportSingle(metric *CaseMetrics) error

	// Close flushes buffered data.
	Close() error
}

// Collector records verdicts and keeps a running aggregate. It implements
// runner.Observer so it can be attached to a run directly.
type Collector struct {
	mu        sync.Mutex
	suite     string
	metrics   []*CaseMetrics
	aggregate *AggregateMetrics
	histogram *hdrhistogram.Histogram
	exporters []Exporter
	now       func() time.Time
}

func NewCollector(exporters ...Exporter) *Collector {
	return &Collector{
		metrics:   make([]*CaseMetrics, 0),
		exporters: exporters,
		histogram: hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		aggregate: newAggregate(),
		now:       time.Now,
	}
}

func newAggregate() *AggregateMetrics {
	return &AggregateMetrics{
		StatusCodes: make(map[int]int64),
		ByCase:      make(map[string]*CaseAggregate),
	}
}

func (c *Collector) OnRunStart(s *suite.Suite, _ runner.Endpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s != nil {
		c.suite = s.Name
	}
}

func (c *Collector) OnHealth(*runner.HealthResult) {}

func (c *Collector) OnCaseStart(int, int, *suite.TestCase) {}

// OnVerdict records executed cases and counts skipped ones.
func (c *Collector) OnVerdict(v *runner.Verdict) {
	if v.Skipped() {
		c.mu.Lock()
		c.aggregate.SkippedCount++
		c.mu.Unlock()
		return
	}
	c.Record(&CaseMetrics{
		Suite:      c.suiteName(),
		CaseName:   v.Name,
		HasImage:   v.HasImage,
		StatusCode: v.StatusCode,
		DurationMs: float64(v.Duration.Microseconds()) / 1000,
		Outcome:    string(v.Outcome),
		Reason:     string(v.Reason),
		Timestamp:  c.now(),
	})
}

// RecordRun notes the end of a run.
func (c *Collector) RecordRun(result *runner.RunResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if result.Aborted {
		c.aggregate.AbortedRuns++
	}
}

func (c *Collector) suiteName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suite
}

// Record adds one case to the aggregate and hands it to every exporter.
func (c *Collector) Record(m *CaseMetrics) {
	c.mu.Lock()
	c.metrics = append(c.metrics, m)
	c.updateAggregate(m)
	c.mu.Unlock()

	for _, exp := range c.exporters {
		_ = exp.ExportSingle(m)
	}
}

func (c *Collector) updateAggregate(m *CaseMetrics) {
	a := c.aggregate
	a.TotalRequests++
	a.TotalDurationMs += m.DurationMs

	switch runner.Outcome(m.Outcome) {
	case runner.OutcomePassed:
		a.PassedCount++
	case runner.OutcomeInconclusive:
		a.InconclusiveCount++
	default:
		a.FailedCount++
	}

	if a.TotalRequests == 1 {
		a.MinDurationMs = m.DurationMs
		a.MaxDurationMs = m.DurationMs
	} else {
		if m.DurationMs < a.MinDurationMs {
			a.MinDurationMs = m.DurationMs
		}
		if m.DurationMs > a.MaxDurationMs {
			a.MaxDurationMs = m.DurationMs
		}
	}
	a.AvgDurationMs = a.TotalDurationMs / float64(a.TotalRequests)

	us := int64(m.DurationMs * 1000)
	if us < histogramMin {
		us = histogramMin
	}
	if us > histogramMax {
		us = histogramMax
	}
	_ = c.histogram.RecordValue(us)
	a.P50DurationMs = float64(c.histogram.ValueAtQuantile(50)) / 1000
	a.P95DurationMs = float64(c.histogram.ValueAtQuantile(95)) / 1000
	a.P99DurationMs = float64(c.histogram.ValueAtQuantile(99)) / 1000

	// Cases that never got a response are counted under status 0.
	a.StatusCodes[m.StatusCode]++

	ca, ok := a.ByCase[m.CaseName]
	if !ok {
		ca = &CaseAggregate{
			Name:          m.CaseName,
			MinDurationMs: m.DurationMs,
			MaxDurationMs: m.DurationMs,
		}
		a.ByCase[m.CaseName] = ca
	}
	ca.TotalRequests++
	if runner.Outcome(m.Outcome) == runner.OutcomeFailed {
		ca.FailedCount++
	} else {
		ca.PassedCount++
	}
	if m.DurationMs < ca.MinDurationMs {
		ca.MinDurationMs = m.DurationMs
	}
	if m.DurationMs > ca.MaxDurationMs {
		ca.MaxDurationMs = m.DurationMs
	}
	ca.AvgDurationMs = (ca.AvgDurationMs*float64(ca.TotalRequests-1) + m.DurationMs) / float64(ca.TotalRequests)
}

// GetAggregate returns a snapshot of the aggregate.
func (c *Collector) GetAggregate() *AggregateMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := *c.aggregate
	out.StatusCodes = make(map[int]int64, len(c.aggregate.StatusCodes))
	for k, v := range c.aggregate.StatusCodes {
		out.StatusCodes[k] = v
	}
	out.ByCase = make(map[string]*CaseAggregate, len(c.aggregate.ByCase))
	for k, v := range c.aggregate.ByCase {
		ca := *v
		out.ByCase[k] = &ca
	}
	return &out
}

// Flush exports the aggregate to every exporter.
func (c *Collector) Flush() error {
	aggregate := c.GetAggregate()
	for _, exp := range c.exporters {
		if err := exp.Export(aggregate); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all exporters
func (c *Collector) Close() error {
	for _, exp := range c.exporters {
		if err := exp.Close(); err != nil {
			return err
		}
	}
	return nil
}
