// Package audio extracts and level-normalizes fragments of 16-bit PCM WAV
// recordings.
//
// Two processors share the Processor interface and are selected by the
// variant of Config passed to NewProcessor:
//   - SpliceProcessor cuts randomly positioned fixed-length clips, optionally
//     reversing each one.
//   - NormalizeProcessor rescales the peak of the whole file, or of a fixed
//     set of random clips, to a target level.
//
// Every Process call is synchronous and stateless. Outputs are written to the
// caller's output directory and ownership of the files passes to the caller.
package audio

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/maauso/audiosplice-api/internal/audio/pcm"
)

// Processor transforms a source recording into a set of output clips.
type Processor interface {
	// Process runs the transformation and returns the produced files.
	// Files written before a failure are left on disk.
	Process(inputPath, outputDir string, cfg Config) (*Result, error)

	// ValidateConfig checks cfg without touching the filesystem.
	ValidateConfig(cfg Config) error

	// Type returns the processor tag used in metadata and dispatch.
	Type() string
}

// Result is the outcome of a successful Process call.
type Result struct {
	// Files are the output paths in production order.
	Files []string `json:"files"`
	// Metadata describes the source and the run.
	Metadata Metadata `json:"metadata"`
}

// Metadata describes the source recording and the processing run.
type Metadata struct {
	ProcessorType    string  `json:"processor_type"`
	InputDuration    float64 `json:"input_duration"`
	SampleRate       int     `json:"sample_rate"`
	Channels         int     `json:"channels"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
}

// StreamMeta is read once from the source of every Process call.
type StreamMeta struct {
	SampleRate int
	Channels   int
	// Duration is total frames divided by SampleRate, in seconds.
	Duration float64
}

// NewProcessor returns the processor that accepts cfg.
func NewProcessor(cfg Config, logger *slog.Logger) (Processor, error) {
	switch cfg.(type) {
	case SpliceConfig:
		return NewSpliceProcessor(logger), nil
	case NormalizeConfig:
		return NewNormalizeProcessor(logger), nil
	default:
		return nil, configError("no processor for config %T", cfg)
	}
}

// randSource returns a fresh random source for one Process call.
type randSource func() *rand.Rand

func newCallRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// openSource decodes the source and reads its stream metadata.
func openSource(path string) (*pcm.Reader, StreamMeta, error) {
	r, err := pcm.Open(path)
	if err != nil {
		return nil, StreamMeta{}, sourceError(err)
	}
	f := r.Format()
	return r, StreamMeta{
		SampleRate: f.SampleRate,
		Channels:   f.Channels,
		Duration:   r.Duration(),
	}, nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ioError("create output directory", err)
	}
	return nil
}

// checkSpliceRange rejects clips that do not fit strictly inside the source,
// which would leave an empty offset range to draw from.
func checkSpliceRange(meta StreamMeta, duration float64) error {
	if meta.Duration <= duration {
		return processingError("source duration %.3fs must exceed splice duration %.3fs", meta.Duration, duration)
	}
	return nil
}

// readRandomClip seeks to a start offset drawn uniformly from
// [0, total-duration) and reads floor(duration*rate) frames. The clip is
// shorter when the source ends first.
func readRandomClip(r *pcm.Reader, meta StreamMeta, rng *rand.Rand, duration float64) ([]int16, error) {
	start := rng.Float64() * (meta.Duration - duration)
	startFrame := int(math.Floor(start * float64(meta.SampleRate)))
	if err := r.Seek(startFrame); err != nil {
		return nil, processingError("seek to frame %d: %v", startFrame, err)
	}
	frames := int(math.Floor(duration * float64(meta.SampleRate)))
	return r.ReadFrames(frames), nil
}

// writeClip writes samples to dir/name using the source layout.
func writeClip(dir, name string, format pcm.Format, samples []int16) (string, error) {
	path := filepath.Join(dir, name)
	if err := pcm.WriteFile(path, format, samples); err != nil {
		return "", sinkError(err)
	}
	return path, nil
}

func clipName(prefix string, i int) string {
	return fmt.Sprintf("%s_%d.wav", prefix, i)
}
