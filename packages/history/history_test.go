package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/runner"
	"github.com/abdul-hamid-achik/classifyprobe/packages/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite://" + filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("run-%04d", n)
	}
	return s
}

func result(suiteName string, success bool, started time.Time) *runner.RunResult {
	match := true
	score := 0.87
	r := &runner.RunResult{
		Suite:     suiteName,
		Endpoint:  runner.Endpoint{Scheme: "http", Host: "localhost", Port: 9002},
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
		Verdicts: []*runner.Verdict{
			{
				Index: 1, Name: "Exact Match", BusinessName: "Warung Makan Sederhana", RequestID: "test_req_1",
				Outcome: runner.OutcomePassed, StatusCode: 200, Duration: 420 * time.Millisecond,
				BusinessType: "restaurant",
				Comparison:   &extract.Comparison{Field: "comparison", IsMatch: &match, MatchScore: &score},
			},
		},
		Passed:  1,
		Success: success,
	}
	if !success {
		r.Verdicts = append(r.Verdicts, &runner.Verdict{
			Index: 2, Name: "Partial Match", BusinessName: "Warung Sederhana",
			Outcome: runner.OutcomeFailed, Reason: runner.ReasonStatus, StatusCode: 500,
			Message: "API error 500: boom",
		})
		r.Failed = 1
	}
	return r
}

func TestOpen_ConnectionStrings(t *testing.T) {
	dir := t.TempDir()
	for _, conn := range []string{
		"sqlite://" + filepath.Join(dir, "a.db"),
		"sqlite:" + filepath.Join(dir, "b.db"),
		filepath.Join(dir, "c.db"),
	} {
		s, err := Open(conn)
		require.NoError(t, err, conn)
		require.NoError(t, s.Close())
	}

	_, err := Open("postgres://localhost/history")
	assert.ErrorContains(t, err, "unsupported history database scheme: postgres")

	_, err = Open("  ")
	assert.Error(t, err)
}

func TestRecordRun_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	id, err := s.RecordRun(ctx, result("local", false, started))
	require.NoError(t, err)
	assert.Equal(t, "run-0001", id)

	runs, err := s.RecentRuns(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, "local", run.Suite)
	assert.Equal(t, "http://localhost:9002", run.Endpoint)
	assert.True(t, run.StartedAt.Equal(started))
	assert.Equal(t, 1500*time.Millisecond, run.Duration)
	assert.Equal(t, 2, run.Total)
	assert.Equal(t, 1, run.Failed)
	assert.False(t, run.Success)

	verdicts, err := s.Verdicts(ctx, "run-0")
	require.NoError(t, err)
	require.Len(t, verdicts, 2)
	assert.Equal(t, "test_req_1", verdicts[0].RequestID)
	require.NotNil(t, verdicts[0].IsMatch)
	assert.True(t, *verdicts[0].IsMatch)
	assert.InDelta(t, 0.87, *verdicts[0].MatchScore, 1e-9)
	assert.Equal(t, 420*time.Millisecond, verdicts[0].Duration)
	assert.Nil(t, verdicts[1].IsMatch)
	assert.Equal(t, "non-2xx status", verdicts[1].Reason)
	assert.Equal(t, "API error 500: boom", verdicts[1].Message)
}

func TestVerdicts_UnknownAndAmbiguousIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.RecordRun(ctx, result("local", true, now))
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, result("local", true, now.Add(time.Second)))
	require.NoError(t, err)

	_, err = s.Verdicts(ctx, "nope")
	assert.ErrorContains(t, err, "no run with id")

	_, err = s.Verdicts(ctx, "run-")
	assert.ErrorContains(t, err, "ambiguous")
}

func TestLastRunSuccess(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	endpoint := "http://localhost:9002"

	_, found, err := s.LastRunSuccess(ctx, "local", endpoint)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = s.RecordRun(ctx, result("local", false, base))
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, result("local", true, base.Add(time.Minute)))
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, result("production", false, base.Add(2*time.Minute)))
	require.NoError(t, err)

	success, found, err := s.LastRunSuccess(ctx, "local", endpoint)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, success)

	success, found, err = s.LastRunSuccess(ctx, "production", endpoint)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, success)

	_, found, err = s.LastRunSuccess(ctx, "local", "https://api.example.com:443")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRecentRuns_OrderAndFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		name := "local"
		if i%2 == 1 {
			name = "production"
		}
		_, err := s.RecordRun(ctx, result(name, true, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	runs, err := s.RecentRuns(ctx, "", 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"run-0005", "run-0004", "run-0003"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	runs, err = s.RecentRuns(ctx, "production", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-0004", runs[0].ID)
}
