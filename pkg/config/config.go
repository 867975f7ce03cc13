// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/user/vvdec/pkg/adapters/y4mhost"
	"github.com/user/vvdec/pkg/annexb"
	"github.com/user/vvdec/pkg/orchestrator"
	"github.com/user/vvdec/pkg/ports"
	"github.com/user/vvdec/pkg/session"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config represents the full configuration for vvdec.
type Config struct {
	Decoder DecoderConfig `yaml:"decoder"`
	Reader  ReaderConfig  `yaml:"reader"`
	Output  OutputConfig  `yaml:"output"`
	Preview PreviewConfig `yaml:"preview"`

	// Correlation is "timestamp" or "sequence".
	Correlation string `yaml:"correlation"`
	FrameOrigin uint64 `yaml:"frame_origin"`

	LogLevel string `yaml:"log_level"`
}

// DecoderConfig maps to the engine parameters.
type DecoderConfig struct {
	Threads           int  `yaml:"threads"`
	ParseDelay        int  `yaml:"parse_delay"`
	RemovePadding     bool `yaml:"remove_padding"`
	ErrorTolerance    bool `yaml:"error_tolerance"`
	VerifyPictureHash bool `yaml:"verify_picture_hash"`
}

// ReaderConfig bounds the access-unit splitter.
type ReaderConfig struct {
	PageSize      int `yaml:"page_size"`
	MaxBufferSize int `yaml:"max_buffer_size"`
}

// OutputConfig configures the Y4M writer.
type OutputConfig struct {
	// FrameRate such as "25" or "30000/1001"; empty uses the stream timing.
	FrameRate     string `yaml:"frame_rate"`
	LinearBuffers bool   `yaml:"linear_buffers"`
	StrideAlign   int    `yaml:"stride_align"`
	MaxPending    int    `yaml:"max_pending"`
}

// PreviewConfig controls debug output.
type PreviewConfig struct {
	Dir       string `yaml:"dir"`
	Every     int    `yaml:"every"`
	Width     int    `yaml:"width"`
	DumpUnits bool   `yaml:"dump_units"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	params := ports.DefaultEngineParams()
	return Config{
		Decoder: DecoderConfig{
			Threads:    params.Threads,
			ParseDelay: params.ParseDelay,
		},
		Reader: ReaderConfig{
			PageSize:      annexb.DefaultPageSize,
			MaxBufferSize: annexb.DefaultMaxBufferSize,
		},
		Output: OutputConfig{
			MaxPending: y4mhost.DefaultMaxPending,
		},
		Preview: PreviewConfig{
			Width: 320,
		},
		Correlation: session.CorrelateByTimestamp.String(),
		LogLevel:    "info",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Decoder.Threads < -1 {
		return fmt.Errorf("%w: decoder.threads must be -1 or more, got %d", ErrInvalid, c.Decoder.Threads)
	}
	if c.Decoder.ParseDelay < -1 {
		return fmt.Errorf("%w: decoder.parse_delay must be -1 or more, got %d", ErrInvalid, c.Decoder.ParseDelay)
	}
	if c.Reader.PageSize <= 0 {
		return fmt.Errorf("%w: reader.page_size must be positive", ErrInvalid)
	}
	if c.Reader.MaxBufferSize < c.Reader.PageSize {
		return fmt.Errorf("%w: reader.max_buffer_size %d is below page_size %d", ErrInvalid, c.Reader.MaxBufferSize, c.Reader.PageSize)
	}
	if a := c.Output.StrideAlign; a < 0 || a&(a-1) != 0 {
		return fmt.Errorf("%w: output.stride_align must be a power of two, got %d", ErrInvalid, a)
	}
	if _, err := ParseRate(c.Output.FrameRate); err != nil {
		return err
	}
	if _, err := session.ParseCorrelationMode(c.Correlation); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Preview.Every < 0 || c.Preview.Width < 0 {
		return fmt.Errorf("%w: preview.every and preview.width must not be negative", ErrInvalid)
	}
	return nil
}

// ParseRate parses "num/den", "num:den" or a whole number. An empty string
// is the zero Rational.
func ParseRate(s string) (ports.Rational, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ports.Rational{}, nil
	}
	num, den := s, "1"
	if i := strings.IndexAny(s, "/:"); i >= 0 {
		num, den = s[:i], s[i+1:]
	}
	n, err1 := strconv.Atoi(num)
	d, err2 := strconv.Atoi(den)
	r := ports.Rational{Num: n, Den: d}
	if err1 != nil || err2 != nil || !r.Valid() {
		return ports.Rational{}, fmt.Errorf("%w: frame rate %q", ErrInvalid, s)
	}
	return r, nil
}

// EngineParams returns the decoder section as engine parameters.
func (c Config) EngineParams() ports.EngineParams {
	return ports.EngineParams{
		Threads:           c.Decoder.Threads,
		ParseDelay:        c.Decoder.ParseDelay,
		RemovePadding:     c.Decoder.RemovePadding,
		ErrorTolerance:    c.Decoder.ErrorTolerance,
		VerifyPictureHash: c.Decoder.VerifyPictureHash,
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config. Call
// Validate first; invalid values fall back to defaults.
func (c Config) ToOrchestratorConfig(input string) orchestrator.Config {
	mode, err := session.ParseCorrelationMode(c.Correlation)
	if err != nil {
		mode = session.CorrelateByTimestamp
	}
	return orchestrator.Config{
		Input:         input,
		PageSize:      c.Reader.PageSize,
		MaxBufferSize: c.Reader.MaxBufferSize,
		Params:        c.EngineParams(),
		Correlation:   mode,
		FrameOrigin:   c.FrameOrigin,
		PreviewEvery:  c.Preview.Every,
		PreviewWidth:  c.Preview.Width,
		DumpUnits:     c.Preview.DumpUnits,
	}
}

// ToHostOptions converts the output section to Y4M host options.
func (c Config) ToHostOptions() y4mhost.Options {
	rate, _ := ParseRate(c.Output.FrameRate)
	return y4mhost.Options{
		FrameRate:   rate,
		Linear:      c.Output.LinearBuffers,
		StrideAlign: c.Output.StrideAlign,
		MaxPending:  c.Output.MaxPending,
	}
}
