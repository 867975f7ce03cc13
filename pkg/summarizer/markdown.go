package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// Formatter converts a Summary to text.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc adapts a function to Formatter.
type FormatFunc func(summary *Summary) string

func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator translates headings and labels.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) { f.t = t }
}

// WithVersion adds the tool version to the footer.
func WithVersion(v string) MarkdownOption {
	return func(f *MarkdownFormatter) { f.version = v }
}

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	t       func(string) string
	version string
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{t: func(s string) string { return s }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder
	t := f.t

	fmt.Fprintf(&b, "# %s\n\n", t("Decode Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	if s.Settings.EngineVersion != "" {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Engine"), s.Settings.EngineVersion)
	}
	fmt.Fprintf(&b, "| %s | %s |\n", t("Threads"), autoValue(s.Settings.Threads, t))
	fmt.Fprintf(&b, "| %s | %s |\n", t("Parse Delay"), autoValue(s.Settings.ParseDelay, t))
	if s.Settings.Correlation != "" {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Correlation"), s.Settings.Correlation)
	}
	if s.Settings.ErrorTolerant {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Error Tolerance"), t("On"))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Streams"))
	fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
		t("Input"), t("Units"), t("Size"), t("Frames"), t("Dropped"), t("Format"), t("Time"))
	b.WriteString("|---|---:|---:|---:|---:|---|---:|\n")
	for _, r := range s.Runs {
		format := r.Format
		if r.Failed() {
			format = t("Failed")
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %d | %d | %s | %s |\n",
			r.Input, r.Units, formatBytes(r.Bytes), r.Delivered, r.Dropped, format, formatDuration(r.Duration))
	}
	b.WriteString("\n")

	if len(s.Runs) > 1 {
		total := s.Totals()
		fmt.Fprintf(&b, "%s: %d %s, %s, %d %s\n\n",
			t("Total"), total.Units, t("units"), formatBytes(total.Bytes), total.Delivered, t("frames"))
	}

	for _, r := range s.Runs {
		if r.Failed() {
			fmt.Fprintf(&b, "- **%s** %s: %s\n", r.Input, t("failed"), r.Err)
			continue
		}
		if r.Renegotiations > 1 || r.Restarts > 0 || r.Unsupported > 0 {
			fmt.Fprintf(&b, "- **%s**: %d %s, %d %s, %d %s\n", r.Input,
				r.Renegotiations, t("format changes"), r.Restarts, t("restarts"), r.Unsupported, t("unsupported pictures"))
		}
		if planes := r.AliasedPlanes + r.CopiedPlanes; planes > 0 && r.CopiedPlanes > 0 {
			fmt.Fprintf(&b, "- **%s**: %d/%d %s\n", r.Input, r.CopiedPlanes, planes, t("planes copied"))
		}
	}

	b.WriteString("\n---\n")
	if f.version != "" {
		fmt.Fprintf(&b, "vvdec %s\n", f.version)
	} else {
		b.WriteString("vvdec\n")
	}
	return b.String()
}

func autoValue(v int, t func(string) string) string {
	if v < 0 {
		return t("Auto")
	}
	return fmt.Sprintf("%d", v)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2f s", d.Seconds())
}

func formatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
