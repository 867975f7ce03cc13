// Package main provides the CLI entry point for vvdec.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/user/vvdec/pkg/adapters/filesink"
	"github.com/user/vvdec/pkg/adapters/ggrenderer"
	"github.com/user/vvdec/pkg/adapters/logger"
	"github.com/user/vvdec/pkg/adapters/nullsink"
	"github.com/user/vvdec/pkg/adapters/osfilesystem"
	"github.com/user/vvdec/pkg/adapters/rtpsource"
	"github.com/user/vvdec/pkg/adapters/vvdec"
	"github.com/user/vvdec/pkg/adapters/y4mhost"
	"github.com/user/vvdec/pkg/annexb"
	"github.com/user/vvdec/pkg/config"
	"github.com/user/vvdec/pkg/orchestrator"
	"github.com/user/vvdec/pkg/ports"
	"github.com/user/vvdec/pkg/summarizer"
)

var version = "dev"

const rtpScheme = "rtp://"

func main() {
	app := &cli.App{
		Name:    "vvdec",
		Usage:   l10n.T("Decode H.266/VVC elementary streams"),
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "", Category: l10n.T("Logging"), Usage: l10n.T("Log level (debug, info, warn, error)")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Category: l10n.T("Logging"), Usage: l10n.T("Suppress all log output")},
		},
		Commands: []*cli.Command{
			decodeCommand(),
			splitCommand(),
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Println(l10n.F("vvdec (Go) version %s", version))
					if v := vvdec.Version(); v != "" {
						fmt.Println(l10n.F("VVdeC library %s", v))
					} else {
						fmt.Println(l10n.T("VVdeC library not available"))
					}
					return nil
				},
			},
		},
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, l10n.T("Interrupted, shutting down..."))
		cancel()
	}()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     l10n.T("Decode Annex-B streams to Y4M"),
		ArgsUsage: "<input.266|-|rtp://host:port>...",
		Flags: []cli.Flag{
			// Output
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Category: l10n.T("Output"), Usage: l10n.T("Output Y4M path, or directory for several inputs (default: stdout)")},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Category: l10n.T("Output"), Usage: l10n.T("YAML configuration file")},
			&cli.StringFlag{Name: "summary", Category: l10n.T("Output"), Usage: l10n.T("Output execution summary to file (Markdown format)")},
			&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Value: runtime.NumCPU(), Category: l10n.T("Output"), Usage: l10n.T("Number of inputs decoded in parallel")},
			&cli.StringFlag{Name: "frame-rate", Category: l10n.T("Output"), Usage: l10n.T("Frame rate written to the Y4M header (e.g., 30000/1001)")},
			&cli.BoolFlag{Name: "linear", Category: l10n.T("Output"), Usage: l10n.T("Request tightly packed planes instead of stride metadata")},
			&cli.IntFlag{Name: "stride-align", Category: l10n.T("Output"), Usage: l10n.T("Stride alignment proposed to the decoder")},

			// Decoder
			&cli.IntFlag{Name: "threads", Aliases: []string{"t"}, Category: l10n.T("Decoder"), Usage: l10n.T("Decoder threads (-1 = auto)")},
			&cli.IntFlag{Name: "parse-delay", Category: l10n.T("Decoder"), Usage: l10n.T("Parser frame delay (-1 = auto)")},
			&cli.BoolFlag{Name: "error-tolerance", Category: l10n.T("Decoder"), Usage: l10n.T("Keep decoding after recoverable bitstream errors")},
			&cli.BoolFlag{Name: "verify-hash", Category: l10n.T("Decoder"), Usage: l10n.T("Verify picture hash SEI messages")},
			&cli.StringFlag{Name: "correlation", Category: l10n.T("Decoder"), Usage: l10n.T("Frame correlation mode (timestamp, sequence)")},
			&cli.Uint64Flag{Name: "frame-origin", Category: l10n.T("Decoder"), Usage: l10n.T("Offset of the first frame")},

			// Reader
			&cli.IntFlag{Name: "page-size", Category: l10n.T("Input"), Usage: l10n.T("Read size in bytes")},
			&cli.IntFlag{Name: "max-buffer", Category: l10n.T("Input"), Usage: l10n.T("Largest access unit in bytes")},
			&cli.DurationFlag{Name: "rtp-idle", Value: 5 * time.Second, Category: l10n.T("Input"), Usage: l10n.T("End an RTP stream after this long without packets")},
			&cli.UintFlag{Name: "rtp-payload-type", Category: l10n.T("Input"), Usage: l10n.T("Accept only this RTP payload type (0 = any)")},

			// Debug
			&cli.StringFlag{Name: "debug-dir", Category: l10n.T("Debug"), Usage: l10n.T("Directory for debug output")},
			&cli.IntFlag{Name: "preview-every", Category: l10n.T("Debug"), Usage: l10n.T("Save a PNG preview of every n-th frame")},
			&cli.IntFlag{Name: "preview-width", Category: l10n.T("Debug"), Usage: l10n.T("Preview width in pixels")},
			&cli.BoolFlag{Name: "dump-units", Category: l10n.T("Debug"), Usage: l10n.T("Save every access unit to the debug directory")},
		},
		Action: runDecode,
	}
}

func splitCommand() *cli.Command {
	return &cli.Command{
		Name:      "split",
		Usage:     l10n.T("List the access units of an Annex-B stream"),
		ArgsUsage: "<input.266|->",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page-size", Value: annexb.DefaultPageSize, Usage: l10n.T("Read size in bytes")},
			&cli.IntFlag{Name: "max-buffer", Value: annexb.DefaultMaxBufferSize, Usage: l10n.T("Largest access unit in bytes")},
		},
		Action: runSplit,
	}
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return cfg, err
		}
	}

	if c.IsSet("threads") {
		cfg.Decoder.Threads = c.Int("threads")
	}
	if c.IsSet("parse-delay") {
		cfg.Decoder.ParseDelay = c.Int("parse-delay")
	}
	if c.IsSet("error-tolerance") {
		cfg.Decoder.ErrorTolerance = c.Bool("error-tolerance")
	}
	if c.IsSet("verify-hash") {
		cfg.Decoder.VerifyPictureHash = c.Bool("verify-hash")
	}
	if c.IsSet("correlation") {
		cfg.Correlation = c.String("correlation")
	}
	if c.IsSet("frame-origin") {
		cfg.FrameOrigin = c.Uint64("frame-origin")
	}
	if c.IsSet("page-size") {
		cfg.Reader.PageSize = c.Int("page-size")
	}
	if c.IsSet("max-buffer") {
		cfg.Reader.MaxBufferSize = c.Int("max-buffer")
	}
	if c.IsSet("frame-rate") {
		cfg.Output.FrameRate = c.String("frame-rate")
	}
	if c.IsSet("linear") {
		cfg.Output.LinearBuffers = c.Bool("linear")
	}
	if c.IsSet("stride-align") {
		cfg.Output.StrideAlign = c.Int("stride-align")
	}
	if c.IsSet("debug-dir") {
		cfg.Preview.Dir = c.String("debug-dir")
	}
	if c.IsSet("preview-every") {
		cfg.Preview.Every = c.Int("preview-every")
	}
	if c.IsSet("preview-width") {
		cfg.Preview.Width = c.Int("preview-width")
	}
	if c.IsSet("dump-units") {
		cfg.Preview.DumpUnits = c.Bool("dump-units")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	return cfg, cfg.Validate()
}

// newLogger picks the console logger. Logs move to stderr when stdout
// carries data.
func newLogger(c *cli.Context, level string, stdoutData bool) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	if stdoutData {
		return logger.NewStderr(ports.ParseLogLevel(level))
	}
	return logger.NewConsole(ports.ParseLogLevel(level))
}

// job is one input and where its frames go.
type job struct {
	input    string
	output   string
	debugDir string
}

func planJobs(inputs []string, output, debugDir string) ([]job, error) {
	if len(inputs) == 0 {
		return nil, errors.New(l10n.T("Input argument is required"))
	}
	if len(inputs) == 1 {
		if output == "" {
			output = "-"
		}
		return []job{{input: inputs[0], output: output, debugDir: debugDir}}, nil
	}

	if output == "" || output == "-" {
		return nil, errors.New(l10n.T("An output directory is required for several inputs"))
	}
	jobs := make([]job, 0, len(inputs))
	seen := make(map[string]bool)
	for _, in := range inputs {
		name := outputName(in)
		if seen[name] {
			return nil, errors.New(l10n.F("Duplicate output name %s", name))
		}
		seen[name] = true
		j := job{input: in, output: filepath.Join(output, name+".y4m")}
		if debugDir != "" {
			j.debugDir = filepath.Join(debugDir, name)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// outputName derives a file stem from an input path or RTP address.
func outputName(input string) string {
	if addr, ok := strings.CutPrefix(input, rtpScheme); ok {
		return "rtp_" + strings.NewReplacer(":", "_", "[", "", "]", "").Replace(addr)
	}
	if input == "-" {
		return "stdin"
	}
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func runDecode(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	jobs, err := planJobs(c.Args().Slice(), c.String("output"), cfg.Preview.Dir)
	if err != nil {
		return err
	}

	log := newLogger(c, cfg.LogLevel, len(jobs) == 1 && jobs[0].output == "-")
	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	engine, err := vvdec.NewEngine(log)
	if err != nil {
		return err
	}

	var rtpOpts []rtpsource.Option
	rtpOpts = append(rtpOpts, rtpsource.WithIdleTimeout(c.Duration("rtp-idle")))
	if pt := c.Uint("rtp-payload-type"); pt > 0 {
		rtpOpts = append(rtpOpts, rtpsource.WithPayloadType(uint8(pt)))
	}

	d := &decoder{
		engine:   engine,
		fs:       fs,
		renderer: renderer,
		config:   cfg,
		rtpOpts:  rtpOpts,
		logger:   log,
	}

	runs := make([]summarizer.Run, len(jobs))
	var g errgroup.Group
	g.SetLimit(max(1, c.Int("jobs")))
	for i, j := range jobs {
		g.Go(func() error {
			runs[i] = d.decode(c.Context, j, len(jobs) > 1)
			return nil
		})
	}
	_ = g.Wait()

	if path := c.String("summary"); path != "" {
		d.writeSummary(path, runs)
	}

	failed := 0
	for _, r := range runs {
		if r.Failed() {
			failed++
		}
	}
	switch {
	case c.Context.Err() != nil:
		return c.Context.Err()
	case len(jobs) == 1 && failed == 1:
		return errors.New(runs[0].Err)
	case failed > 0:
		return errors.New(l10n.F("%d of %d inputs failed", failed, len(jobs)))
	}
	return nil
}

// decoder holds what every job shares.
type decoder struct {
	engine   ports.Engine
	fs       ports.FileSystem
	renderer ports.Renderer
	config   config.Config
	rtpOpts  []rtpsource.Option
	logger   ports.Logger
}

func (d *decoder) decode(ctx context.Context, j job, batch bool) summarizer.Run {
	run := summarizer.Run{Input: j.input, Output: j.output}
	log := d.logger
	if batch {
		log = log.WithComponent(outputName(j.input))
	}

	result, err := d.run(ctx, j, log)
	run.Units = result.Units
	run.Bytes = result.Bytes
	run.Pictures = result.Pictures
	run.Delivered = result.Delivered
	run.Dropped = result.Dropped
	run.Unsupported = result.Unsupported
	run.Renegotiations = result.Renegotiations
	run.Restarts = result.Restarts
	run.AliasedPlanes = result.AliasedPlanes
	run.CopiedPlanes = result.CopiedPlanes
	run.Duration = result.Duration
	if result.Format.Width > 0 {
		run.Format = result.Format.String()
	}
	if err != nil {
		log.Error("Failed to decode: %s", err)
		run.Err = err.Error()
		return run
	}
	if j.output != "-" {
		log.Info("Output saved to %s", j.output)
	}
	return run
}

func (d *decoder) run(ctx context.Context, j job, log ports.Logger) (orchestrator.RunResult, error) {
	src, err := d.open(ctx, j.input, log)
	if err != nil {
		return orchestrator.RunResult{}, err
	}
	defer src.Close()

	out, err := d.fs.Create(j.output)
	if err != nil {
		return orchestrator.RunResult{}, fmt.Errorf("create output: %w", err)
	}

	var sink ports.DebugSink = nullsink.New()
	if j.debugDir != "" {
		if err := d.fs.MkdirAll(j.debugDir); err != nil {
			out.Close()
			return orchestrator.RunResult{}, fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(j.debugDir, d.fs, d.renderer)
	}

	host := y4mhost.New(out, log, d.config.ToHostOptions())
	orch := orchestrator.New(d.engine, host, d.renderer, sink, log)
	result, runErr := orch.Run(ctx, src, d.config.ToOrchestratorConfig(j.input))

	if err := out.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close output: %w", err)
	}
	return result, runErr
}

func (d *decoder) open(ctx context.Context, input string, log ports.Logger) (io.ReadCloser, error) {
	if addr, ok := strings.CutPrefix(input, rtpScheme); ok {
		return rtpsource.Listen(ctx, addr, log, d.rtpOpts...)
	}
	return d.fs.Open(input)
}

func (d *decoder) writeSummary(path string, runs []summarizer.Run) {
	builder := summarizer.NewBuilder().WithSettings(summarizer.Settings{
		EngineVersion: vvdec.Version(),
		Threads:       d.config.Decoder.Threads,
		ParseDelay:    d.config.Decoder.ParseDelay,
		Correlation:   d.config.Correlation,
		ErrorTolerant: d.config.Decoder.ErrorTolerance,
	})
	for _, r := range runs {
		builder.AddRun(r)
	}

	formatter := summarizer.NewMarkdownFormatter(
		summarizer.WithTranslator(l10n.T),
		summarizer.WithVersion(version),
	)
	if err := summarizer.NewWriter(formatter, d.fs).Write(path, builder.Build()); err != nil {
		d.logger.Warn("Failed to write summary: %s", err)
		return
	}
	if path != "-" {
		d.logger.Info("Summary saved to %s", path)
	}
}

func runSplit(c *cli.Context) error {
	input := c.Args().First()
	if input == "" {
		input = "-"
	}
	log := newLogger(c, c.String("log-level"), true)

	src, err := osfilesystem.New().Open(input)
	if err != nil {
		return err
	}
	defer src.Close()

	w := bufio.NewWriter(os.Stdout)
	units, bytes, err := split(c.Context, src, w, c.Int("page-size"), c.Int("max-buffer"))
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}
	log.Info("Split %d access units, %d bytes", units, bytes)
	return nil
}

// split writes one line per access unit: index, byte offset, size and
// the type of its first NAL unit.
func split(ctx context.Context, src io.Reader, w io.Writer, pageSize, maxBuffer int) (int, int64, error) {
	reader := annexb.NewReader(src,
		annexb.WithPageSize(pageSize),
		annexb.WithMaxBufferSize(maxBuffer),
	)

	var offset int64
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return index, offset, err
		}
		chunk, err := reader.NextChunk()
		if err == io.EOF {
			return index, offset, nil
		}
		if err != nil {
			return index, offset, err
		}
		if _, err := fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", index, offset, len(chunk), nalType(chunk)); err != nil {
			return index, offset, err
		}
		offset += int64(len(chunk))
	}
}

// nalType returns nal_unit_type of the first NAL unit in an Annex-B
// chunk, or -1. It is a diagnostic column for the split listing only;
// the splitter and the decoder never look at NAL headers.
func nalType(chunk []byte) int {
	i := 0
	for i < len(chunk) && chunk[i] == 0 {
		i++
	}
	if i < 2 || i+2 >= len(chunk) || chunk[i] != 1 {
		return -1
	}
	return int(chunk[i+2] >> 3)
}
