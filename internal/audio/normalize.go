package audio

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/maauso/audiosplice-api/internal/audio/pcm"
)

// Clip policy of the splice-and-normalize mode. It is fixed and does not come
// from NormalizeConfig.
const (
	HybridSpliceDuration = 2.0
	HybridSpliceCount    = 5
)

// Compile-time check that NormalizeProcessor implements Processor.
var _ Processor = (*NormalizeProcessor)(nil)

// NormalizeProcessor rescales sample amplitude so the peak matches a target
// level.
type NormalizeProcessor struct {
	logger  *slog.Logger
	newRand randSource
}

// NewNormalizeProcessor creates a NormalizeProcessor.
func NewNormalizeProcessor(logger *slog.Logger) *NormalizeProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &NormalizeProcessor{logger: logger, newRand: newCallRand}
}

// Type implements Processor.
func (p *NormalizeProcessor) Type() string { return TypeNormalize }

// ValidateConfig implements Processor.
func (p *NormalizeProcessor) ValidateConfig(cfg Config) error {
	c, ok := cfg.(NormalizeConfig)
	if !ok {
		return configError("invalid config for normalize processor: %T", cfg)
	}
	if !(c.TargetLevel > 0 && c.TargetLevel <= 1) {
		return configError("target_level must be between 0.0 and 1.0 (where 1.0 = maximum level), got %v", c.TargetLevel)
	}
	return nil
}

// Process implements Processor. The whole-file mode writes
// normalized_audio.wav; the splice mode writes normalized_splice_{i}.wav.
func (p *NormalizeProcessor) Process(inputPath, outputDir string, cfg Config) (*Result, error) {
	started := time.Now()

	if err := p.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	c := cfg.(NormalizeConfig)

	reader, meta, err := openSource(inputPath)
	if err != nil {
		return nil, err
	}

	p.logger.Info("processing normalize",
		slog.String("input", inputPath),
		slog.Float64("target_level", c.TargetLevel),
		slog.Bool("apply_to_splices", c.ApplyToSplices),
	)

	var files []string
	if c.ApplyToSplices {
		files, err = p.normalizeSplices(reader, meta, outputDir, c.TargetLevel)
	} else {
		var path string
		path, err = p.normalizeFile(reader, outputDir, c.TargetLevel)
		files = []string{path}
	}
	if err != nil {
		return nil, err
	}

	return newResult(p.Type(), files, meta, started), nil
}

func (p *NormalizeProcessor) normalizeFile(reader *pcm.Reader, outputDir string, target float64) (string, error) {
	samples := reader.ReadAll()
	if len(samples) == 0 {
		return "", processingError("no audio data found")
	}

	gain, err := NormalizeGain(samples, target)
	if err != nil {
		return "", err
	}
	p.logger.Info("normalizing",
		slog.Float64("peak", PeakLevel(samples)),
		slog.Float64("target", target),
		slog.Float64("gain", gain),
	)
	ApplyGain(samples, gain)

	if err := ensureDir(outputDir); err != nil {
		return "", err
	}
	return writeClip(outputDir, "normalized_audio.wav", reader.Format(), samples)
}

// normalizeSplices extracts HybridSpliceCount random clips and normalizes each
// one independently. Empty clips are skipped; silent clips are written as is.
func (p *NormalizeProcessor) normalizeSplices(reader *pcm.Reader, meta StreamMeta, outputDir string, target float64) ([]string, error) {
	if err := checkSpliceRange(meta, HybridSpliceDuration); err != nil {
		return nil, err
	}
	if err := ensureDir(outputDir); err != nil {
		return nil, err
	}

	rng := p.newRand()
	files := make([]string, 0, HybridSpliceCount)
	for i := range HybridSpliceCount {
		samples, err := readRandomClip(reader, meta, rng, HybridSpliceDuration)
		if err != nil {
			return nil, err
		}
		if len(samples) == 0 {
			continue
		}
		if gain, err := NormalizeGain(samples, target); err == nil {
			ApplyGain(samples, gain)
		} else {
			p.logger.Debug("leaving silent splice unchanged",
				slog.String("file", filepath.Join(outputDir, clipName("normalized_splice", i))),
			)
		}
		path, err := writeClip(outputDir, clipName("normalized_splice", i), reader.Format(), samples)
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}
