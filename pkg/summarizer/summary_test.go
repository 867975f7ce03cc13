package summarizer

import (
	"testing"
	"time"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	if summary.GeneratedAt.Before(before) || summary.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt should be between %v and %v, got %v",
			before, after, summary.GeneratedAt)
	}
}

func TestBuilder_WithSettings(t *testing.T) {
	summary := NewBuilder().
		WithSettings(Settings{EngineVersion: "3.0.0", Threads: 4, ParseDelay: -1, Correlation: "timestamp"}).
		Build()

	if summary.Settings.EngineVersion != "3.0.0" {
		t.Errorf("expected engine version '3.0.0', got '%s'", summary.Settings.EngineVersion)
	}
	if summary.Settings.Threads != 4 {
		t.Errorf("expected 4 threads, got %d", summary.Settings.Threads)
	}
	if summary.Settings.Correlation != "timestamp" {
		t.Errorf("expected timestamp correlation, got '%s'", summary.Settings.Correlation)
	}
}

func TestBuilder_AddRun(t *testing.T) {
	summary := NewBuilder().
		AddRun(Run{Input: "a.266", Units: 10}).
		AddRun(Run{Input: "b.266", Units: 5, Err: "boom"}).
		Build()

	if len(summary.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(summary.Runs))
	}
	if summary.Runs[0].Input != "a.266" || summary.Runs[1].Input != "b.266" {
		t.Errorf("runs out of order: %+v", summary.Runs)
	}
	if summary.Runs[0].Failed() {
		t.Error("first run should not be failed")
	}
	if !summary.Runs[1].Failed() {
		t.Error("second run should be failed")
	}
}

func TestSummary_Totals(t *testing.T) {
	summary := NewBuilder().
		AddRun(Run{Units: 10, Bytes: 1000, Delivered: 9, Dropped: 1, AliasedPlanes: 27, Duration: time.Second}).
		AddRun(Run{Units: 5, Bytes: 500, Delivered: 5, Restarts: 1, CopiedPlanes: 15, Duration: 2 * time.Second}).
		Build()

	total := summary.Totals()
	if total.Units != 15 || total.Bytes != 1500 {
		t.Errorf("unexpected stream totals %d units, %d bytes", total.Units, total.Bytes)
	}
	if total.Delivered != 14 || total.Dropped != 1 || total.Restarts != 1 {
		t.Errorf("unexpected decode totals %+v", total)
	}
	if total.AliasedPlanes != 27 || total.CopiedPlanes != 15 {
		t.Errorf("unexpected plane totals %d/%d", total.AliasedPlanes, total.CopiedPlanes)
	}
	if total.Duration != 3*time.Second {
		t.Errorf("expected 3s, got %v", total.Duration)
	}
}

func TestSummary_TotalsEmpty(t *testing.T) {
	if total := NewSummary().Totals(); total != (Run{}) {
		t.Errorf("expected zero totals, got %+v", total)
	}
}
