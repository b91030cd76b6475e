package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/filelock"
)

// JSONExporter exports metrics to JSON format
type JSONExporter struct {
	mu        sync.Mutex
	writer    io.Writer
	filePath  string
	pretty    bool
	version   string
	metrics   []*CaseMetrics
	startTime time.Time
	now       func() time.Time
}

// JSONOption is a functional option for JSONExporter
type JSONOption func(*JSONExporter)

// WithJSONWriter sets the output writer for JSON metrics
func WithJSONWriter(w io.Writer) JSONOption {
	return func(j *JSONExporter) {
		j.writer = w
	}
}

// WithJSONFile writes the metrics to path, replacing it atomically.
func WithJSONFile(path string) JSONOption {
	return func(j *JSONExporter) {
		j.filePath = path
	}
}

// WithJSONPretty enables pretty-printed JSON output
func WithJSONPretty(pretty bool) JSONOption {
	return func(j *JSONExporter) {
		j.pretty = pretty
	}
}

// WithJSONVersion records the tool version in the metadata block.
func WithJSONVersion(v string) JSONOption {
	return func(j *JSONExporter) {
		j.version = v
	}
}

func NewJSONExporter(opts ...JSONOption) *JSONExporter {
	j := &JSONExporter{
		metrics: make([]*CaseMetrics, 0),
		pretty:  true,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	j.startTime = j.now()
	return j
}

// JSONMetricsOutput is the complete JSON output structure
type JSONMetricsOutput struct {
	Metadata JSONMetadata      `json:"metadata"`
	Summary  *AggregateMetrics `json:"summary"`
	Cases    []*CaseMetrics    `json:"cases"`
}

// JSONMetadata contains metadata about the metrics collection
type JSONMetadata struct {
	GeneratedAt string `json:"generated_at"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Duration    string `json:"duration"`
	Version     string `json:"version,omitempty"`
}

func (j *JSONExporter) Export(metrics *AggregateMetrics) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	endTime := j.now()
	output := JSONMetricsOutput{
		Metadata: JSONMetadata{
			GeneratedAt: endTime.Format(time.RFC3339),
			StartTime:   j.startTime.Format(time.RFC3339),
			EndTime:     endTime.Format(time.RFC3339),
			Duration:    endTime.Sub(j.startTime).String(),
			Version:     j.version,
		},
		Summary: metrics,
		Cases:   j.metrics,
	}

	var data []byte
	var err error
	if j.pretty {
		data, err = json.MarshalIndent(output, "", "  ")
	} else {
		data, err = json.Marshal(output)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	data = append(data, '\n')

	if j.filePath != "" {
		if err := filelock.LockAndWrite(j.filePath, data); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
	}
	if j.writer != nil {
		if _, err := j.writer.Write(data); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func (j *JSONExporter) ExportSingle(metric *CaseMetrics) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.metrics = append(j.metrics, metric)
	return nil
}

func (j *JSONExporter) Close() error {
	return nil
}
