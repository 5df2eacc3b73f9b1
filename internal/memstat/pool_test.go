package memstat

import "testing"

func TestTracker_BasicOperations(t *testing.T) {
	tr := New("test-tree", 1024)

	if tr.CurrentUsage() != 0 {
		t.Errorf("expected initial usage to be 0, got %d", tr.CurrentUsage())
	}
	if tr.MaxSize() != 1024 {
		t.Errorf("expected max size to be 1024, got %d", tr.MaxSize())
	}
	if tr.Pressure() != 0.0 {
		t.Errorf("expected initial pressure to be 0.0, got %f", tr.Pressure())
	}
}

func TestTracker_Sample(t *testing.T) {
	tr := New("test-tree", 1024)

	tr.Sample(512)
	if tr.CurrentUsage() != 512 {
		t.Errorf("expected usage to be 512, got %d", tr.CurrentUsage())
	}

	expectedPressure := 512.0 / 1024.0
	if tr.Pressure() != expectedPressure {
		t.Errorf("expected pressure %f, got %f", expectedPressure, tr.Pressure())
	}

	tr.Sample(0)
	if tr.CurrentUsage() != 0 {
		t.Errorf("expected usage to be 0 after sampling 0, got %d", tr.CurrentUsage())
	}
}

func TestTracker_PressureThresholds(t *testing.T) {
	tr := New("test-tree", 1000)

	var warningCalled, criticalCalled, panicCalled bool
	var warningPressure, criticalPressure, panicPressure float64

	tr.SetPressureHandlers(
		func(p float64) { warningCalled = true; warningPressure = p },
		func(p float64) { criticalCalled = true; criticalPressure = p },
		func(p float64) { panicCalled = true; panicPressure = p },
	)

	tr.Sample(850)
	if !warningCalled {
		t.Error("expected warning callback to fire at 85%")
	}
	if warningPressure < 0.85 {
		t.Errorf("expected warning pressure >= 0.85, got %f", warningPressure)
	}

	tr.Sample(900)
	if !criticalCalled {
		t.Error("expected critical callback to fire at 90%")
	}
	if criticalPressure < 0.90 {
		t.Errorf("expected critical pressure >= 0.90, got %f", criticalPressure)
	}

	tr.Sample(950)
	if !panicCalled {
		t.Error("expected panic callback to fire at 95%")
	}
	if panicPressure < 0.95 {
		t.Errorf("expected panic pressure >= 0.95, got %f", panicPressure)
	}
}

func TestTracker_Stats(t *testing.T) {
	tr := New("stats-tree", 1024)
	tr.Sample(256)
	tr.Sample(300)

	stats := tr.Stats()
	if stats["name"] != "stats-tree" {
		t.Errorf("expected name 'stats-tree', got %v", stats["name"])
	}
	if stats["max_size"] != int64(1024) {
		t.Errorf("expected max_size 1024, got %v", stats["max_size"])
	}
	if stats["current_usage"] != int64(300) {
		t.Errorf("expected current_usage 300, got %v", stats["current_usage"])
	}
	if stats["sample_count"] != int64(2) {
		t.Errorf("expected sample_count 2, got %v", stats["sample_count"])
	}
}

func TestTracker_CustomThresholds(t *testing.T) {
	tr := New("threshold-test", 1000)

	if err := tr.SetPressureThresholds(-0.1, 0.5, 0.8); err == nil {
		t.Error("expected negative threshold to be rejected")
	}
	if err := tr.SetPressureThresholds(0.9, 0.8, 0.7); err == nil {
		t.Error("expected wrong threshold order to be rejected")
	}
	if err := tr.SetPressureThresholds(0.70, 0.80, 0.90); err != nil {
		t.Errorf("valid thresholds were rejected: %v", err)
	}

	var warningCalled bool
	tr.SetPressureHandlers(func(p float64) { warningCalled = true }, nil, nil)

	tr.Sample(750)
	if !warningCalled {
		t.Error("expected warning callback with custom threshold at 75%")
	}
}

func TestTracker_ZeroBudgetNeverPanics(t *testing.T) {
	tr := New("unbounded", 0)
	tr.Sample(1 << 30)
	if tr.Pressure() != 0 {
		t.Errorf("expected zero-budget tracker to report zero pressure, got %f", tr.Pressure())
	}
}

func BenchmarkTracker_Sample(b *testing.B) {
	tr := New("bench-tree", int64(b.N)*100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Sample(int64(i) * 100)
	}
}
