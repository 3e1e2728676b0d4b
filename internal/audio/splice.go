package audio

import (
	"fmt"
	"log/slog"
	"time"
)

// MaxSpliceCount bounds the number of clips a single request may ask for.
const MaxSpliceCount = 1000

// Compile-time check that SpliceProcessor implements Processor.
var _ Processor = (*SpliceProcessor)(nil)

// SpliceProcessor extracts randomly positioned fixed-duration clips.
type SpliceProcessor struct {
	logger  *slog.Logger
	newRand randSource
}

// NewSpliceProcessor creates a SpliceProcessor.
func NewSpliceProcessor(logger *slog.Logger) *SpliceProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpliceProcessor{logger: logger, newRand: newCallRand}
}

// Type implements Processor.
func (p *SpliceProcessor) Type() string { return TypeSplice }

// ValidateConfig implements Processor.
func (p *SpliceProcessor) ValidateConfig(cfg Config) error {
	c, ok := cfg.(SpliceConfig)
	if !ok {
		return configError("invalid config for splice processor: %T", cfg)
	}
	return validateSplice(c.Duration, c.Count)
}

func validateSplice(duration float64, count int) error {
	// written as !(d > 0) so that NaN is rejected too
	if !(duration > 0) {
		return fmt.Errorf("%w: splice duration must be positive, got %v", ErrInvalidDuration, duration)
	}
	if count < 1 {
		return fmt.Errorf("%w: splice count must be >= 1, got %d", ErrInvalidSpliceCount, count)
	}
	if count > MaxSpliceCount {
		return fmt.Errorf("%w: splice count must be <= %d, got %d", ErrInvalidSpliceCount, MaxSpliceCount, count)
	}
	return nil
}

// Process implements Processor. It writes splice_{i}.wav for every clip.
func (p *SpliceProcessor) Process(inputPath, outputDir string, cfg Config) (*Result, error) {
	started := time.Now()

	if err := p.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	c := cfg.(SpliceConfig)

	reader, meta, err := openSource(inputPath)
	if err != nil {
		return nil, err
	}
	if err := checkSpliceRange(meta, c.Duration); err != nil {
		return nil, err
	}
	if err := ensureDir(outputDir); err != nil {
		return nil, err
	}

	p.logger.Info("processing splice",
		slog.String("input", inputPath),
		slog.Float64("duration", c.Duration),
		slog.Int("count", c.Count),
		slog.Bool("reverse", c.Reverse),
	)

	rng := p.newRand()
	files := make([]string, 0, min(c.Count, 64))
	for i := range c.Count {
		samples, err := readRandomClip(reader, meta, rng, c.Duration)
		if err != nil {
			return nil, err
		}
		if c.Reverse {
			Reverse(samples)
		}
		path, err := writeClip(outputDir, clipName("splice", i), reader.Format(), samples)
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	}

	return newResult(p.Type(), files, meta, started), nil
}

func newResult(processorType string, files []string, meta StreamMeta, started time.Time) *Result {
	return &Result{
		Files: files,
		Metadata: Metadata{
			ProcessorType:    processorType,
			InputDuration:    meta.Duration,
			SampleRate:       meta.SampleRate,
			Channels:         meta.Channels,
			ProcessingTimeMs: time.Since(started).Milliseconds(),
		},
	}
}
