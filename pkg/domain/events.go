package domain

import (
	"context"
	"time"
)

// Operation names the kind of run.
type Operation string

const (
	OpValidate  Operation = "validate"
	OpNormalize Operation = "normalize"
	OpCheck     Operation = "check"
)

// RunEvent describes one validate or normalize run.
type RunEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Operation Operation `json:"operation"`
	// Schema is the catalogue name when the run used a stored schema.
	Schema   string        `json:"schema,omitempty"`
	Findings []Finding     `json:"findings,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for run observability.
type LifecycleHooks struct {
	OnRunStart func(context.Context, *RunEvent)
	OnRunEnd   func(context.Context, *RunEvent)
	OnFinding  func(context.Context, *RunEvent, Finding)
}
