package timeline

import (
	"github.com/samber/lo"
)

// PlanItem describes how one entry will be released and stepped.
type PlanItem struct {
	Method     string `json:"method" yaml:"method"`
	URL        string `json:"url" yaml:"url"`
	Body       string `json:"body" yaml:"body"`
	Start      uint64 `json:"start" yaml:"start"`
	End        uint64 `json:"end" yaml:"end"`
	Step       uint64 `json:"step" yaml:"step"`
	Dispatches int    `json:"dispatches" yaml:"dispatches"`
}

// Plan returns the release schedule without running anything.
func (s *Scheduler) Plan() []PlanItem {
	return lo.Map(s.entries, func(e *Entry, _ int) PlanItem {
		return PlanItem{
			Method:     e.record.Method,
			URL:        e.record.URL(),
			Body:       e.record.Body.Kind(),
			Start:      e.start,
			End:        e.end,
			Step:       e.step,
			Dispatches: e.Dispatches(),
		}
	})
}

// TotalDispatches returns how many requests a full run fires.
func (s *Scheduler) TotalDispatches() int {
	return lo.SumBy(s.entries, func(e *Entry) int {
		return e.Dispatches()
	})
}
