// Package notify posts run summaries to chat webhooks.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/runner"
)

// NotifyOn specifies when to send notifications
type NotifyOn string

const (
	// NotifyAlways sends notifications for every run
	NotifyAlways NotifyOn = "always"
	// NotifyFailure sends notifications only when the run fails
	NotifyFailure NotifyOn = "failure"
	// NotifySuccess sends notifications only when the run succeeds
	NotifySuccess NotifyOn = "success"
	// NotifyRecovery sends notifications on failures and on the first
	// success after a failure
	NotifyRecovery NotifyOn = "recovery"
)

// ParseNotifyOn validates a policy name. The empty string means failure.
func ParseNotifyOn(s string) (NotifyOn, error) {
	switch NotifyOn(strings.ToLower(strings.TrimSpace(s))) {
	case "", NotifyFailure:
		return NotifyFailure, nil
	case NotifyAlways:
		return NotifyAlways, nil
	case NotifySuccess:
		return NotifySuccess, nil
	case NotifyRecovery:
		return NotifyRecovery, nil
	}
	return "", fmt.Errorf("invalid notify policy %q (want always, failure, success or recovery)", s)
}

// RunSummary is the notification payload derived from a run.
type RunSummary struct {
	Suite        string        `json:"suite"`
	Endpoint     string        `json:"endpoint"`
	Environment  string        `json:"environment,omitempty"`
	Total        int           `json:"total"`
	Passed       int           `json:"passed"`
	Failed       int           `json:"failed"`
	Inconclusive int           `json:"inconclusive"`
	Skipped      int           `json:"skipped"`
	Duration     time.Duration `json:"duration"`
	Success      bool          `json:"success"`
	AbortReason  string        `json:"abort_reason,omitempty"`
	FailedCases  []FailedCase  `json:"failed_cases,omitempty"`
	IsRecovery   bool          `json:"is_recovery,omitempty"`
}

// FailedCase is one failed verdict in a notification.
type FailedCase struct {
	Name    string `json:"name"`
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

// Summarize builds a RunSummary. environment is typically the config
// profile name.
func Summarize(result *runner.RunResult, environment string) *RunSummary {
	s := &RunSummary{
		Suite:        result.Suite,
		Endpoint:     result.Endpoint.BaseURL(),
		Environment:  environment,
		Total:        result.Total(),
		Passed:       result.Passed,
		Failed:       result.Failed,
		Inconclusive: result.Inconclusive,
		Skipped:      result.Skipped,
		Duration:     result.Duration,
		Success:      result.Success,
	}
	if result.Aborted {
		s.AbortReason = string(result.AbortReason)
	}
	for _, v := range result.Verdicts {
		if v.Failed() {
			s.FailedCases = append(s.FailedCases, FailedCase{
				Name:    v.Name,
				Reason:  string(v.Reason),
				Message: v.Message,
			})
		}
	}
	return s
}

// headline is the one-line status shared by every notifier.
func (s *RunSummary) headline() string {
	switch {
	case s.AbortReason != "":
		return fmt.Sprintf("%s run aborted (%s)", s.Suite, s.AbortReason)
	case !s.Success:
		return fmt.Sprintf("%s: %d case(s) failed", s.Suite, s.Failed)
	case s.IsRecovery:
		return fmt.Sprintf("%s recovered", s.Suite)
	default:
		return fmt.Sprintf("%s passed", s.Suite)
	}
}

// Notifier is the interface for notification services
type Notifier interface {
	Notify(ctx context.Context, summary *RunSummary) error

	// Name returns the name of the notifier
	Name() string
}

// Manager applies the policy and fans out to notifiers.
type Manager struct {
	mu        sync.Mutex
	notifiers []Notifier
	notifyOn  NotifyOn
	lastState bool // true if last run was successful
}

func NewManager(notifyOn NotifyOn, notifiers ...Notifier) *Manager {
	return &Manager{
		notifiers: notifiers,
		notifyOn:  notifyOn,
		lastState: true,
	}
}

func (m *Manager) AddNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiers = append(m.notifiers, n)
}

// SeedLastState sets the outcome of the previous run, usually read from the
// history database, so that recovery can be detected across invocations.
func (m *Manager) SeedLastState(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastState = success
}

// ShouldNotify applies the policy to summary and records its state. It
// marks the summary as a recovery when appropriate.
func (m *Manager) ShouldNotify(summary *RunSummary) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	success := summary.Success
	notify := false
	switch m.notifyOn {
	case NotifyAlways:
		notify = true
	case NotifyFailure:
		notify = !success
	case NotifySuccess:
		notify = success
	case NotifyRecovery:
		if !m.lastState && success {
			notify = true
			summary.IsRecovery = true
		}
		if !success {
			notify = true
		}
	}
	m.lastState = success
	return notify
}

// Notify sends the summary to every notifier when the policy allows it.
// All notifiers are tried; their errors are joined.
func (m *Manager) Notify(ctx context.Context, summary *RunSummary) error {
	if !m.ShouldNotify(summary) {
		return nil
	}

	m.mu.Lock()
	notifiers := append([]Notifier(nil), m.notifiers...)
	m.mu.Unlock()

	var errs []error
	for _, n := range notifiers {
		if err := n.Notify(ctx, summary); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
