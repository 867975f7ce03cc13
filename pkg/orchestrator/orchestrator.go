// Package orchestrator drives one stream from bytes to output frames.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/user/vvdec/pkg/annexb"
	"github.com/user/vvdec/pkg/format"
	"github.com/user/vvdec/pkg/ports"
	"github.com/user/vvdec/pkg/session"
)

// Config contains the settings for one decode run.
type Config struct {
	// Input is a display name for logs and the summary.
	Input string

	// Reader
	PageSize      int
	MaxBufferSize int

	// Decoder
	Params      ports.EngineParams
	Correlation session.CorrelationMode
	FrameOrigin uint64

	// Preview renders every n-th output frame to the debug sink; zero disables.
	PreviewEvery int
	PreviewWidth int

	// DumpUnits saves every access unit to the debug sink.
	DumpUnits bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		PageSize:      annexb.DefaultPageSize,
		MaxBufferSize: annexb.DefaultMaxBufferSize,
		Params:        ports.DefaultEngineParams(),
		Correlation:   session.CorrelateByTimestamp,
		PreviewWidth:  320,
	}
}

// Orchestrator connects a byte source, a decoder session and a host.
type Orchestrator struct {
	engine   ports.Engine
	host     ports.PipelineHost
	renderer ports.Renderer
	sink     ports.DebugSink
	logger   ports.Logger
}

// New creates a new Orchestrator. renderer may be nil when previews are
// not used.
func New(
	engine ports.Engine,
	host ports.PipelineHost,
	renderer ports.Renderer,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		engine:   engine,
		host:     host,
		renderer: renderer,
		sink:     sink,
		logger:   logger,
	}
}

// Run splits src into access units, decodes them and hands every output
// frame to the host. The host is closed before Run returns. Cancelling
// ctx stops the run without draining the decoder.
func (o *Orchestrator) Run(ctx context.Context, src io.Reader, config Config) (RunResult, error) {
	start := time.Now()
	o.logger.Info("Decoding %s", config.Input)

	host := ports.PipelineHost(o.host)
	var preview *previewHost
	if config.PreviewEvery > 0 && o.renderer != nil && o.sink.Enabled() {
		preview = newPreviewHost(o.host, o.renderer, o.sink, config, o.logger)
		host = preview
	}

	sess := session.New(o.engine, host, o.logger,
		session.WithParams(config.Params),
		session.WithCorrelation(config.Correlation),
		session.WithFrameOrigin(config.FrameOrigin),
	)
	if err := sess.Start(); err != nil {
		o.host.Close()
		return RunResult{}, err
	}

	result, runErr := o.decode(ctx, src, sess, config)
	if info, ok := sess.Negotiated(); ok {
		result.Format = info
	}

	if err := sess.Reset(); err != nil && runErr == nil {
		runErr = err
	}
	if err := o.host.Close(); err != nil && runErr == nil {
		o.logger.Error("Failed to write output: %s", err)
		runErr = fmt.Errorf("close output: %w", err)
	}

	stats := sess.Stats()
	result.Input = config.Input
	result.Pictures = stats.Pictures
	result.Delivered = stats.Delivered
	result.Dropped = stats.Dropped
	result.Unsupported = stats.Unsupported
	result.Renegotiations = stats.Renegotiations
	result.AliasedPlanes = stats.AliasedPlanes
	result.CopiedPlanes = stats.CopiedPlanes
	if preview != nil {
		result.Previews = preview.saved
	}
	result.Duration = time.Since(start)

	if runErr != nil {
		return result, runErr
	}
	o.logger.Info("Decoded %d pictures from %d units", result.Delivered, result.Units)
	return result, nil
}

func (o *Orchestrator) decode(ctx context.Context, src io.Reader, sess *session.Session, config Config) (RunResult, error) {
	var result RunResult
	reader := annexb.NewReader(src,
		annexb.WithPageSize(config.PageSize),
		annexb.WithMaxBufferSize(config.MaxBufferSize),
	)

	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		chunk, err := reader.NextChunk()
		if err == io.EOF {
			break
		}
		if err != nil {
			o.logger.Error("Failed to decode: %s", err)
			return result, fmt.Errorf("read %s: %w", config.Input, err)
		}
		result.Units++
		result.Bytes += int64(len(chunk))

		if config.DumpUnits && o.sink.Enabled() {
			if err := o.sink.SaveAccessUnit(index, chunk); err != nil {
				o.logger.Warn("Failed to save access unit %d: %s", index, err)
			}
		}

		offset := config.FrameOrigin + uint64(index)
		if err := o.host.SubmitFrame(offset); err != nil {
			return result, fmt.Errorf("submit frame %d: %w", offset, err)
		}

		out, err := sess.Decode(ports.AccessUnit{Payload: chunk, CTS: offset, CTSValid: true})
		switch {
		case err == nil:
		case out.Picture:
			o.logger.Warn("Dropped picture %d: %s", out.Sequence, err)
		case errors.Is(err, session.ErrRestartRequired):
			if err := sess.Restart(); err != nil {
				return result, err
			}
			result.Restarts++
		default:
			o.logger.Error("Failed to decode: %s", err)
			return result, err
		}
	}

	// a cancelled live source reads as EOF
	if err := ctx.Err(); err != nil {
		return result, err
	}

	o.logger.Info("Draining decoder")
	if _, err := sess.Drain(); err != nil {
		o.logger.Error("Failed to decode: %s", err)
		return result, err
	}
	return result, nil
}

// RunResult contains the results of a decode run for summary generation.
type RunResult struct {
	Input string

	Units int
	Bytes int64

	Pictures       int
	Delivered      int
	Dropped        int
	Unsupported    int
	Renegotiations int
	Restarts       int

	AliasedPlanes int64
	CopiedPlanes  int64

	// Format is the last negotiated output format.
	Format   format.VideoInfo
	Previews int
	Duration time.Duration
}
