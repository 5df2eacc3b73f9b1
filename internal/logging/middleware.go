package logging

import (
	"context"
	"time"
)

// PhaseTimer wraps one named phase of work (an insert pass, a contains
// sweep, a false-positive sample) with a correlation ID and start/stop
// logging, the same shape the teacher's HTTP request logging used for
// request lifecycles.
type PhaseTimer struct {
	ctx       context.Context
	component string
	action    string
	label     string
	start     time.Time
	fields    map[string]interface{}
}

// StartPhase begins timing a named phase, logging its start and
// returning a handle whose Stop logs completion with duration.
func StartPhase(ctx context.Context, component, action, label string, fields map[string]interface{}) *PhaseTimer {
	correlationID := GetCorrelationID(ctx)
	if correlationID == "" {
		correlationID = NewCorrelationID()
		ctx = WithCorrelationID(ctx, correlationID)
	}

	Info(ctx, component, action, label+" started", fields)

	return &PhaseTimer{
		ctx:       ctx,
		component: component,
		action:    action,
		label:     label,
		start:     time.Now(),
		fields:    fields,
	}
}

// Context returns the timer's context, carrying its correlation ID, so
// callers can thread it through the operations the phase covers.
func (p *PhaseTimer) Context() context.Context { return p.ctx }

// Stop logs completion with elapsed duration and the given result
// fields merged over the phase's starting fields.
func (p *PhaseTimer) Stop(result map[string]interface{}) {
	duration := time.Since(p.start)

	merged := make(map[string]interface{}, len(p.fields)+len(result))
	for k, v := range p.fields {
		merged[k] = v
	}
	for k, v := range result {
		merged[k] = v
	}

	if logger := GetGlobalLogger(); logger != nil {
		logger.WithDuration(p.ctx, INFO, p.component, p.action, p.label+" completed", duration, merged)
	}
}
