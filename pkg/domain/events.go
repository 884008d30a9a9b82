package domain

import (
	"context"
	"time"
)

// StepEvent describes one completed prediction/update cycle.
type StepEvent struct {
	Step        int     `json:"step"`
	Observed    bool    `json:"observed"`
	Observation float64 `json:"observation,omitempty"`
	Surprise    float64 `json:"surprise"`
}

// RunEvent describes a whole filtering run.
type RunEvent struct {
	Steps         int           `json:"steps"`
	TotalSurprise float64       `json:"total_surprise"`
	Duration      time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for engine observability. Hooks run
// synchronously inside the filtering loop; keep them cheap.
type LifecycleHooks struct {
	OnRunStart func(context.Context, *RunEvent)
	OnStep     func(context.Context, *StepEvent)
	OnRunEnd   func(context.Context, *RunEvent)
}
