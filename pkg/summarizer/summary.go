// Package summarizer provides summary generation for decode runs.
package summarizer

import "time"

// Summary contains all data collected during one invocation.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Settings used for every run
	Settings Settings

	// One entry per decoded input
	Runs []Run
}

// Settings contains the decoder configuration.
type Settings struct {
	EngineVersion string
	Threads       int
	ParseDelay    int
	Correlation   string
	ErrorTolerant bool
}

// Run contains the results of decoding one input.
type Run struct {
	Input  string
	Output string

	// Stream
	Units int
	Bytes int64

	// Decode
	Pictures       int
	Delivered      int
	Dropped        int
	Unsupported    int
	Renegotiations int
	Restarts       int

	// Output
	Format        string
	AliasedPlanes int64
	CopiedPlanes  int64

	Duration time.Duration

	// Err is the failure message, empty on success.
	Err string
}

// Failed reports whether the run ended with an error.
func (r Run) Failed() bool {
	return r.Err != ""
}

// Totals sums the counters of every run.
func (s *Summary) Totals() Run {
	var t Run
	for _, r := range s.Runs {
		t.Units += r.Units
		t.Bytes += r.Bytes
		t.Pictures += r.Pictures
		t.Delivered += r.Delivered
		t.Dropped += r.Dropped
		t.Unsupported += r.Unsupported
		t.Renegotiations += r.Renegotiations
		t.Restarts += r.Restarts
		t.AliasedPlanes += r.AliasedPlanes
		t.CopiedPlanes += r.CopiedPlanes
		t.Duration += r.Duration
	}
	return t
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSettings sets the decoder settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// AddRun appends the result of one input.
func (b *Builder) AddRun(run Run) *Builder {
	b.summary.Runs = append(b.summary.Runs, run)
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
