package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestPlanJobs_Single(t *testing.T) {
	jobs, err := planJobs([]string{"in.266"}, "", "debug")
	if err != nil {
		t.Fatalf("planJobs failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].output != "-" || jobs[0].debugDir != "debug" {
		t.Errorf("unexpected jobs %+v", jobs)
	}
}

func TestPlanJobs_Batch(t *testing.T) {
	jobs, err := planJobs([]string{"a/one.266", "b/two.vvc", "rtp://127.0.0.1:5004"}, "out", "dbg")
	if err != nil {
		t.Fatalf("planJobs failed: %v", err)
	}
	want := []job{
		{input: "a/one.266", output: filepath.Join("out", "one.y4m"), debugDir: filepath.Join("dbg", "one")},
		{input: "b/two.vvc", output: filepath.Join("out", "two.y4m"), debugDir: filepath.Join("dbg", "two")},
		{input: "rtp://127.0.0.1:5004", output: filepath.Join("out", "rtp_127.0.0.1_5004.y4m"), debugDir: filepath.Join("dbg", "rtp_127.0.0.1_5004")},
	}
	for i := range want {
		if jobs[i] != want[i] {
			t.Errorf("job %d = %+v, want %+v", i, jobs[i], want[i])
		}
	}
}

func TestPlanJobs_Errors(t *testing.T) {
	tests := []struct {
		name   string
		inputs []string
		output string
	}{
		{"no input", nil, "out"},
		{"stdout for batch", []string{"a.266", "b.266"}, "-"},
		{"no directory for batch", []string{"a.266", "b.266"}, ""},
		{"duplicate names", []string{"x/a.266", "y/a.266"}, "out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := planJobs(tt.inputs, tt.output, ""); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOutputName(t *testing.T) {
	tests := map[string]string{
		"clip.266":             "clip",
		"/tmp/dir/clip.v2.vvc": "clip.v2",
		"-":                    "stdin",
		"rtp://[::1]:5004":     "rtp___1_5004",
	}
	for in, want := range tests {
		if got := outputName(in); got != want {
			t.Errorf("outputName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNalType(t *testing.T) {
	tests := []struct {
		chunk []byte
		want  int
	}{
		{[]byte{0, 0, 1, 0x00, 0x81}, 16},
		{[]byte{0, 0, 0, 1, 0x00, 0x79}, 15},
		{[]byte{0, 0, 1, 0x00}, -1},
		{[]byte{0, 1, 0x00, 0x81}, -1},
		{nil, -1},
	}
	for _, tt := range tests {
		if got := nalType(tt.chunk); got != tt.want {
			t.Errorf("nalType(%x) = %d, want %d", tt.chunk, got, tt.want)
		}
	}
}

func TestSplit(t *testing.T) {
	stream := []byte{
		0, 0, 0, 1, 0x00, 0x79, 0xaa,
		0, 0, 1, 0x00, 0x81, 0xbb, 0xcc,
	}
	var out bytes.Buffer
	units, n, err := split(context.Background(), bytes.NewReader(stream), &out, 4, 64)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if units != 2 || n != int64(len(stream)) {
		t.Errorf("expected 2 units and %d bytes, got %d and %d", len(stream), units, n)
	}
	want := "0\t0\t7\t15\n1\t7\t7\t16\n"
	if out.String() != want {
		t.Errorf("unexpected listing\n%s", out.String())
	}
}

func TestSplit_TypeColumnDoesNotAffectChunking(t *testing.T) {
	stream := []byte{
		0, 0, 1, 0x40,
		0, 0, 1, 0x00, 0x81,
	}
	var out bytes.Buffer
	units, n, err := split(context.Background(), bytes.NewReader(stream), &out, 4, 64)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if units != 2 || n != int64(len(stream)) {
		t.Errorf("expected 2 units and %d bytes, got %d and %d", len(stream), units, n)
	}
	want := "0\t0\t4\t-1\n1\t4\t5\t16\n"
	if out.String() != want {
		t.Errorf("unexpected listing\n%s", out.String())
	}
}

func TestSplit_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := split(ctx, strings.NewReader("\x00\x00\x01\x00\x81"), &bytes.Buffer{}, 4, 64)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
