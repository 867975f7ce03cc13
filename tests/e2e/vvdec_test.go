// Package e2e contains end-to-end tests for the vvdec CLI.
// The CLI loads libvvdec at run time, so it can be tested with pre-built
// binaries.
package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// getBinaryName returns the test binary name with platform-specific extension
func getBinaryName() string {
	if runtime.GOOS == "windows" {
		return "vvdec-test.exe"
	}
	return "vvdec-test"
}

// getBinaryPath returns the path to execute the test binary.
// VVDEC_BINARY overrides it for CI with pre-built binaries.
func getBinaryPath(t *testing.T) string {
	if path := os.Getenv("VVDEC_BINARY"); path != "" {
		return path
	}
	return filepath.Join(getProjectRoot(t), getBinaryName())
}

// buildBinary builds the CLI unless a pre-built binary is provided.
func buildBinary(t *testing.T) {
	t.Helper()
	if os.Getenv("VVDEC_E2E") != "1" {
		t.Skip("Skipping E2E test (set VVDEC_E2E=1 to run)")
	}
	if os.Getenv("VVDEC_BINARY") != "" {
		return
	}

	buildCmd := exec.Command("go", "build", "-o", getBinaryName(), "./cmd/vvdec")
	buildCmd.Dir = getProjectRoot(t)
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\n%s", err, out)
	}
	t.Cleanup(func() { os.Remove(filepath.Join(getProjectRoot(t), getBinaryName())) })
}

func TestVersionFlag(t *testing.T) {
	buildBinary(t)

	out, err := exec.Command(getBinaryPath(t), "--version").CombinedOutput()
	if err != nil {
		t.Fatalf("Version flag failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "vvdec version") {
		t.Errorf("Unexpected version output: %s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	buildBinary(t)

	cmd := exec.Command(getBinaryPath(t), "version")
	cmd.Env = append(os.Environ(), "LANG=C")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Version command failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "vvdec (Go) version") {
		t.Errorf("Unexpected version output: %s", out)
	}
	if !strings.Contains(string(out), "VVdeC library") {
		t.Errorf("Expected library status in output: %s", out)
	}
}

func TestSplitCommand(t *testing.T) {
	buildBinary(t)

	input := filepath.Join(t.TempDir(), "units.266")
	stream := []byte{
		0, 0, 0, 1, 0x00, 0x79, 0xaa,
		0, 0, 1, 0x00, 0x81, 0xbb,
		0, 0, 1, 0x00, 0x09, 0xcc, 0xdd,
	}
	if err := os.WriteFile(input, stream, 0644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(getBinaryPath(t), "--quiet", "split", input)
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("Split command failed: %v", err)
	}

	want := "0\t0\t7\t15\n1\t7\t6\t16\n2\t13\t7\t1\n"
	if string(out) != want {
		t.Errorf("Unexpected split output:\n%s", out)
	}
}

func TestSplitCommandStdin(t *testing.T) {
	buildBinary(t)

	cmd := exec.Command(getBinaryPath(t), "--quiet", "split", "-")
	cmd.Stdin = strings.NewReader("\x00\x00\x01\x00\x81")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("Split command failed: %v", err)
	}
	if string(out) != "0\t0\t5\t16\n" {
		t.Errorf("Unexpected split output: %q", out)
	}
}

func TestSplitMissingStartCode(t *testing.T) {
	buildBinary(t)

	cmd := exec.Command(getBinaryPath(t), "--quiet", "split", "-")
	cmd.Stdin = strings.NewReader("garbage")
	if err := cmd.Run(); err == nil {
		t.Error("expected split to fail without a start code")
	}
}

// TestDecodeCommand needs libvvdec and a sample stream in VVDEC_SAMPLE.
func TestDecodeCommand(t *testing.T) {
	buildBinary(t)

	sample := os.Getenv("VVDEC_SAMPLE")
	if sample == "" {
		t.Skip("Skipping decode test (set VVDEC_SAMPLE to a .266 file)")
	}

	dir := t.TempDir()
	output := filepath.Join(dir, "out.y4m")
	summary := filepath.Join(dir, "summary.md")
	debugDir := filepath.Join(dir, "debug")

	cmd := exec.Command(getBinaryPath(t),
		"decode",
		"-o", output,
		"--summary", summary,
		"--debug-dir", debugDir,
		"--preview-every", "10",
		sample,
	)
	cmd.Env = append(os.Environ(), "LANG=C")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Decode command failed: %v\n%s", err, out)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Output not created: %v", err)
	}
	if !strings.HasPrefix(string(data), "YUV4MPEG2 ") {
		t.Errorf("Output is not Y4M")
	}

	report, err := os.ReadFile(summary)
	if err != nil {
		t.Fatalf("Summary not created: %v", err)
	}
	if !strings.Contains(string(report), "# Decode Summary") {
		t.Errorf("Unexpected summary:\n%s", report)
	}

	frames, err := os.ReadDir(filepath.Join(debugDir, "frames"))
	if err != nil || len(frames) == 0 {
		t.Errorf("Expected preview frames in %s", debugDir)
	}
}

func TestDecodeBatchNeedsDirectory(t *testing.T) {
	buildBinary(t)

	cmd := exec.Command(getBinaryPath(t), "decode", "a.266", "b.266")
	cmd.Env = append(os.Environ(), "LANG=C")
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatal("expected batch decode without an output directory to fail")
	}
	if !strings.Contains(string(out), "output directory") {
		t.Errorf("Unexpected error output: %s", out)
	}
}

// getProjectRoot walks up from the working directory to go.mod.
func getProjectRoot(t *testing.T) string {
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("Could not find project root (go.mod)")
		}
		dir = parent
	}
}
