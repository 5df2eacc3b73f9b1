// Package memstat tracks the heap footprint of an LDCF tree against a
// caller-chosen byte budget and raises pressure callbacks as the tree
// grows. It is a CLI-side accounting helper, not part of the filter's
// core contract (spec.md §5: the core itself does not provide
// synchronization or resource accounting) — cmd/ldcfbench uses it to
// report when a configured epsilon/n/levels triple is growing the tree
// larger than expected.
package memstat

import (
	"context"
	"fmt"
	"time"

	"ldcf/internal/logging"
)

// Tracker watches footprint samples against a maximum byte budget.
type Tracker struct {
	name    string
	maxSize int64

	currentUsage int64
	sampleCount  int64
	lastSample   time.Time

	warningThreshold  float64 // 0.85
	criticalThreshold float64 // 0.90
	panicThreshold    float64 // 0.95

	onWarningPressure  func(float64)
	onCriticalPressure func(float64)
	onPanicPressure    func(float64)
}

// New creates a Tracker for a tree named name with a maximum footprint
// of maxSize bytes.
func New(name string, maxSize int64) *Tracker {
	t := &Tracker{
		name:              name,
		maxSize:           maxSize,
		warningThreshold:  0.85,
		criticalThreshold: 0.90,
		panicThreshold:    0.95,
	}
	t.onWarningPressure = t.defaultWarningHandler
	t.onCriticalPressure = t.defaultCriticalHandler
	t.onPanicPressure = t.defaultPanicHandler
	return t
}

// Sample records a new footprint observation (in bytes, typically the
// sum of EstimatedMemoryUsage() across every filter in the tree) and
// triggers pressure callbacks if a threshold was crossed.
func (t *Tracker) Sample(usageBytes int64) {
	t.currentUsage = usageBytes
	t.sampleCount++
	t.lastSample = time.Now()

	if t.maxSize <= 0 {
		return
	}
	t.checkPressure(float64(usageBytes) / float64(t.maxSize))
}

func (t *Tracker) checkPressure(pressure float64) {
	switch {
	case pressure >= t.panicThreshold && t.onPanicPressure != nil:
		t.onPanicPressure(pressure)
	case pressure >= t.criticalThreshold && t.onCriticalPressure != nil:
		t.onCriticalPressure(pressure)
	case pressure >= t.warningThreshold && t.onWarningPressure != nil:
		t.onWarningPressure(pressure)
	}
}

// CurrentUsage returns the most recently sampled footprint in bytes.
func (t *Tracker) CurrentUsage() int64 { return t.currentUsage }

// MaxSize returns the configured byte budget.
func (t *Tracker) MaxSize() int64 { return t.maxSize }

// Pressure returns the most recent sample as a fraction of MaxSize.
func (t *Tracker) Pressure() float64 {
	if t.maxSize <= 0 {
		return 0
	}
	return float64(t.currentUsage) / float64(t.maxSize)
}

// SetPressureThresholds customizes the warning/critical/panic bounds.
func (t *Tracker) SetPressureThresholds(warning, critical, panic float64) error {
	if warning < 0 || warning > 1 || critical < 0 || critical > 1 || panic < 0 || panic > 1 {
		return fmt.Errorf("thresholds must be between 0.0 and 1.0")
	}
	if warning >= critical || critical >= panic {
		return fmt.Errorf("thresholds must be ordered: warning < critical < panic")
	}
	t.warningThreshold = warning
	t.criticalThreshold = critical
	t.panicThreshold = panic
	return nil
}

// SetPressureHandlers overrides the default logging callbacks.
func (t *Tracker) SetPressureHandlers(onWarning, onCritical, onPanic func(float64)) {
	t.onWarningPressure = onWarning
	t.onCriticalPressure = onCritical
	t.onPanicPressure = onPanic
}

// Stats returns a snapshot of the tracker's counters, mirroring the
// teacher's GetStats map shape.
func (t *Tracker) Stats() map[string]interface{} {
	return map[string]interface{}{
		"name":               t.name,
		"max_size":           t.maxSize,
		"current_usage":      t.currentUsage,
		"pressure":           t.Pressure(),
		"sample_count":       t.sampleCount,
		"warning_threshold":  t.warningThreshold,
		"critical_threshold": t.criticalThreshold,
		"panic_threshold":    t.panicThreshold,
		"last_sample":        t.lastSample,
	}
}

func (t *Tracker) defaultWarningHandler(pressure float64) {
	logging.Warn(context.Background(), logging.ComponentMemory, logging.ActionValidation,
		fmt.Sprintf("tree %q at warning footprint pressure: %.1f%%", t.name, pressure*100))
}

func (t *Tracker) defaultCriticalHandler(pressure float64) {
	logging.Warn(context.Background(), logging.ComponentMemory, logging.ActionValidation,
		fmt.Sprintf("tree %q at critical footprint pressure: %.1f%%", t.name, pressure*100))
}

func (t *Tracker) defaultPanicHandler(pressure float64) {
	logging.Error(context.Background(), logging.ComponentMemory, logging.ActionValidation,
		fmt.Sprintf("tree %q at panic footprint pressure: %.1f%%", t.name, pressure*100), nil)
}

// Name returns the tracked tree's name.
func (t *Tracker) Name() string { return t.name }
