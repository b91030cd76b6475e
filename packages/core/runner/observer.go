package runner

import "github.com/abdul-hamid-achik/classifyprobe/packages/core/suite"

// Observer receives progress while a run is in flight. Calls are made from
// the goroutine running the suite, in order.
type Observer interface {
	OnRunStart(s *suite.Suite, endpoint Endpoint)
	OnHealth(h *HealthResult)
	OnCaseStart(index, total int, tc *suite.TestCase)
	OnVerdict(v *Verdict)
}

type observers []Observer

func (o observers) OnRunStart(s *suite.Suite, endpoint Endpoint) {
	for _, obs := range o {
		obs.OnRunStart(s, endpoint)
	}
}

func (o observers) OnHealth(h *HealthResult) {
	for _, obs := range o {
		obs.OnHealth(h)
	}
}

func (o observers) OnCaseStart(index, total int, tc *suite.TestCase) {
	for _, obs := range o {
		obs.OnCaseStart(index, total, tc)
	}
}

func (o observers) OnVerdict(v *Verdict) {
	for _, obs := range o {
		obs.OnVerdict(v)
	}
}
