package summarizer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/user/vvdec/pkg/mocks"
)

func testSummary() *Summary {
	return NewBuilder().
		WithSettings(Settings{EngineVersion: "3.0.0", Threads: -1, ParseDelay: 2, Correlation: "timestamp", ErrorTolerant: true}).
		AddRun(Run{
			Input:          "first.266",
			Units:          120,
			Bytes:          1536,
			Delivered:      118,
			Dropped:        2,
			Renegotiations: 2,
			Format:         "I420_10LE 1920x1080",
			AliasedPlanes:  300,
			CopiedPlanes:   54,
			Duration:       1500 * time.Millisecond,
		}).
		AddRun(Run{Input: "second.266", Units: 3, Err: "missing start code"}).
		Build()
}

func TestMarkdownFormatter_Format(t *testing.T) {
	out := NewMarkdownFormatter(WithVersion("v1.2.3")).Format(testSummary())

	for _, want := range []string{
		"# Decode Summary",
		"## Settings",
		"| Engine | 3.0.0 |",
		"| Threads | Auto |",
		"| Parse Delay | 2 |",
		"| Error Tolerance | On |",
		"| first.266 | 120 | 1.50 KB | 118 | 2 | I420_10LE 1920x1080 | 1.50 s |",
		"| second.266 | 3 | 0 B | 0 | 0 | Failed | 0 ms |",
		"Total: 123 units",
		"- **second.266** failed: missing start code",
		"- **first.266**: 2 format changes",
		"54/354 planes copied",
		"vvdec v1.2.3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestMarkdownFormatter_SingleRun(t *testing.T) {
	summary := NewBuilder().
		AddRun(Run{Input: "only.266", Units: 1, Delivered: 1, Renegotiations: 1, AliasedPlanes: 3}).
		Build()
	out := NewMarkdownFormatter().Format(summary)

	if strings.Contains(out, "Total:") {
		t.Error("single run should not print totals")
	}
	if strings.Contains(out, "format changes") || strings.Contains(out, "planes copied") {
		t.Errorf("clean run should have no notes\n%s", out)
	}
	if !strings.HasSuffix(out, "---\nvvdec\n") {
		t.Errorf("expected plain footer, got %q", out[strings.LastIndex(out, "---"):])
	}
}

func TestMarkdownFormatter_WithTranslator(t *testing.T) {
	tr := func(s string) string {
		if s == "Decode Summary" {
			return "デコード結果"
		}
		return s
	}
	out := NewMarkdownFormatter(WithTranslator(tr)).Format(testSummary())
	if !strings.HasPrefix(out, "# デコード結果\n") {
		t.Errorf("expected translated title, got %q", strings.SplitN(out, "\n", 2)[0])
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1073741824, "1.00 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.expected {
			t.Errorf("formatBytes(%d) = %s, want %s", tt.bytes, got, tt.expected)
		}
	}
}

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(FormatFunc(func(s *Summary) string { return "runs: 2" }), fs)

	if err := w.Write("out/summary.md", testSummary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, ok := fs.GetFile("out/summary.md")
	if !ok || string(data) != "runs: 2" {
		t.Errorf("unexpected file contents %q", data)
	}
}

func TestWriter_WriteError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(string, []byte) error { return errors.New("disk full") }
	w := NewWriter(NewMarkdownFormatter(), fs)

	if err := w.Write("summary.md", testSummary()); err == nil {
		t.Error("expected error")
	}
}
