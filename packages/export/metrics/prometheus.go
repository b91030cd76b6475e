package metrics

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/classifyprobe/packages/filelock"
)

// PrometheusExporter exports metrics in the Prometheus text exposition
// format, suitable for the node_exporter textfile collector.
type PrometheusExporter struct {
	mu       sync.Mutex
	writer   io.Writer
	filePath string
	prefix   string
	labels   map[string]string
}

// PrometheusOption is a functional option for PrometheusExporter
type PrometheusOption func(*PrometheusExporter)

// WithPrometheusWriter sets the output writer for Prometheus metrics
func WithPrometheusWriter(w io.Writer) PrometheusOption {
	return func(p *PrometheusExporter) {
		p.writer = w
	}
}

// WithPrometheusFile writes the exposition to path, replacing it atomically.
func WithPrometheusFile(path string) PrometheusOption {
	return func(p *PrometheusExporter) {
		p.filePath = path
	}
}

// WithPrometheusLabels adds constant labels to every sample.
func WithPrometheusLabels(labels map[string]string) PrometheusOption {
	return func(p *PrometheusExporter) {
		p.labels = labels
	}
}

func NewPrometheusExporter(opts ...PrometheusOption) *PrometheusExporter {
	p := &PrometheusExporter{
		prefix: "classifyprobe",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PrometheusExporter) Export(metrics *AggregateMetrics) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var buf bytes.Buffer
	p.writeMetrics(&buf, metrics)

	if p.filePath != "" {
		if err := filelock.LockAndWrite(p.filePath, buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
	}
	if p.writer != nil {
		if _, err := p.writer.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// ExportSingle is a no-op; the exposition only carries aggregates.
func (p *PrometheusExporter) ExportSingle(*CaseMetrics) error {
	return nil
}

func (p *PrometheusExporter) Close() error {
	return nil
}

func (p *PrometheusExporter) name(metric string) string {
	return p.prefix + "_" + metric
}

// labelSet renders the constant labels plus extra as {k="v",...}. Keys are
// sorted for stable output.
func (p *PrometheusExporter) labelSet(extra ...string) string {
	pairs := make(map[string]string, len(p.labels)+len(extra)/2)
	for k, v := range p.labels {
		pairs[k] = v
	}
	for i := 0; i+1 < len(extra); i += 2 {
		pairs[extra[i]] = extra[i+1]
	}
	if len(pairs) == 0 {
		return ""
	}

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=\"%s\"", k, sanitizeLabel(pairs[k])))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (p *PrometheusExporter) header(w io.Writer, metric, typ, help string) {
	fmt.Fprintf(w, "# HELP %s %s\n", p.name(metric), help)
	fmt.Fprintf(w, "# TYPE %s %s\n", p.name(metric), typ)
}

func (p *PrometheusExporter) writeMetrics(w io.Writer, a *AggregateMetrics) {
	p.header(w, "requests_total", "counter", "Classify requests sent")
	fmt.Fprintf(w, "%s%s %d\n\n", p.name("requests_total"), p.labelSet(), a.TotalRequests)

	p.header(w, "cases_total", "counter", "Test cases by outcome")
	for _, o := range []struct {
		outcome string
		count   int64
	}{
		{"passed", a.PassedCount},
		{"failed", a.FailedCount},
		{"inconclusive", a.InconclusiveCount},
		{"skipped", a.SkippedCount},
	} {
		fmt.Fprintf(w, "%s%s %d\n", p.name("cases_total"), p.labelSet("outcome", o.outcome), o.count)
	}
	fmt.Fprintln(w)

	p.header(w, "runs_aborted_total", "counter", "Runs aborted by a fatal verdict")
	fmt.Fprintf(w, "%s%s %d\n\n", p.name("runs_aborted_total"), p.labelSet(), a.AbortedRuns)

	p.header(w, "request_duration_ms", "summary", "Classify request duration in milliseconds")
	if a.TotalRequests > 0 {
		for _, q := range []struct {
			quantile string
			value    float64
		}{
			{"0.5", a.P50DurationMs},
			{"0.95", a.P95DurationMs},
			{"0.99", a.P99DurationMs},
		} {
			fmt.Fprintf(w, "%s%s %.2f\n", p.name("request_duration_ms"), p.labelSet("quantile", q.quantile), q.value)
		}
	}
	fmt.Fprintf(w, "%s_sum%s %.2f\n", p.name("request_duration_ms"), p.labelSet(), a.TotalDurationMs)
	fmt.Fprintf(w, "%s_count%s %d\n\n", p.name("request_duration_ms"), p.labelSet(), a.TotalRequests)

	p.header(w, "request_duration_min_ms", "gauge", "Fastest classify request in milliseconds")
	fmt.Fprintf(w, "%s%s %.2f\n\n", p.name("request_duration_min_ms"), p.labelSet(), a.MinDurationMs)
	p.header(w, "request_duration_max_ms", "gauge", "Slowest classify request in milliseconds")
	fmt.Fprintf(w, "%s%s %.2f\n\n", p.name("request_duration_max_ms"), p.labelSet(), a.MaxDurationMs)

	p.header(w, "requests_by_status_total", "counter", "Classify requests by HTTP status code (0 = no response)")
	codes := make([]int, 0, len(a.StatusCodes))
	for code := range a.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "%s%s %d\n", p.name("requests_by_status_total"), p.labelSet("status", fmt.Sprint(code)), a.StatusCodes[code])
	}

	if len(a.ByCase) > 0 {
		fmt.Fprintln(w)
		names := make([]string, 0, len(a.ByCase))
		for name := range a.ByCase {
			names = append(names, name)
		}
		sort.Strings(names)

		p.header(w, "case_duration_avg_ms", "gauge", "Average request duration per case")
		for _, name := range names {
			fmt.Fprintf(w, "%s%s %.2f\n", p.name("case_duration_avg_ms"), p.labelSet("case", name), a.ByCase[name].AvgDurationMs)
		}
	}
}

// sanitizeLabel makes a string safe for use as a Prometheus label value
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
