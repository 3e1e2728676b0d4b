// Package pcm adapts go-audio/wav into a sample-accurate 16-bit PCM reader
// and writer. The reader decodes the whole data chunk once and exposes a
// frame-indexed cursor over it.
package pcm

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// BitDepth is the only sample width the adapter reads and writes.
const BitDepth = 16

// RIFF audio format codes. WAVE_FORMAT_EXTENSIBLE carries its real format
// in a sub-format GUID that go-audio skips; at 16 bits it is integer PCM.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

var (
	// ErrInvalidWAV is returned for malformed headers or unreadable data.
	ErrInvalidWAV = errors.New("pcm: invalid WAV container")
	// ErrUnsupportedFormat is returned for non-PCM or non 16-bit sources.
	ErrUnsupportedFormat = errors.New("pcm: unsupported sample format")
	// ErrSeekOutOfRange is returned when seeking past the last frame.
	ErrSeekOutOfRange = errors.New("pcm: seek out of range")
)

// Format describes the layout of a PCM stream.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Reader is a sequential cursor over the decoded samples of a WAV file.
type Reader struct {
	format  Format
	samples []int
	pos     int // sample index, always a multiple of Channels
}

// Open decodes the WAV file at path. Missing files surface as os.ErrNotExist.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrInvalidWAV)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: audio format %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	if dec.BitDepth != BitDepth {
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: read data chunk: %w", ErrInvalidWAV, err)
	}

	channels := int(dec.NumChans)
	data := buf.Data
	// drop a trailing partial frame from a truncated data chunk
	data = data[:len(data)-len(data)%channels]

	return &Reader{
		format: Format{
			SampleRate: int(dec.SampleRate),
			Channels:   channels,
			BitDepth:   BitDepth,
		},
		samples: data,
	}, nil
}

// Format returns the stream layout.
func (r *Reader) Format() Format { return r.format }

// Frames returns the total number of sample frames.
func (r *Reader) Frames() int { return len(r.samples) / r.format.Channels }

// Duration returns the total duration in seconds.
func (r *Reader) Duration() float64 {
	return float64(r.Frames()) / float64(r.format.SampleRate)
}

// Seek moves the cursor to the given frame index. Seeking to Frames() is
// allowed and leaves the reader at end of stream.
func (r *Reader) Seek(frame int) error {
	if frame < 0 || frame > r.Frames() {
		return fmt.Errorf("%w: frame %d of %d", ErrSeekOutOfRange, frame, r.Frames())
	}
	r.pos = frame * r.format.Channels
	return nil
}

// Read copies whole frames into dst and advances the cursor. It returns the
// number of samples copied, and io.EOF once no frames remain.
func (r *Reader) Read(dst []int16) (int, error) {
	if r.pos >= len(r.samples) {
		return 0, io.EOF
	}
	n := len(dst) - len(dst)%r.format.Channels
	n = min(n, len(r.samples)-r.pos)
	for i := range n {
		dst[i] = int16(r.samples[r.pos+i])
	}
	r.pos += n
	return n, nil
}

// ReadFrames reads up to n frames from the cursor. The returned buffer is
// shorter when the stream ends first and empty at end of stream.
func (r *Reader) ReadFrames(n int) []int16 {
	buf := make([]int16, n*r.format.Channels)
	got, err := r.Read(buf)
	if err != nil {
		return buf[:0]
	}
	return buf[:got]
}

// ReadAll returns every sample from the cursor to the end of the stream.
func (r *Reader) ReadAll() []int16 {
	return r.ReadFrames(r.Frames() - r.pos/r.format.Channels)
}

// Writer encodes 16-bit samples into a new WAV file.
type Writer struct {
	f      *os.File
	enc    *wav.Encoder
	format Format
}

// Create opens path for writing a WAV file with the given layout.
func Create(path string, format Format) (*Writer, error) {
	if format.BitDepth != BitDepth {
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, format.BitDepth)
	}
	f, err := os.Create(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &Writer{
		f:      f,
		enc:    wav.NewEncoder(f, format.SampleRate, format.BitDepth, format.Channels, wavFormatPCM),
		format: format,
	}, nil
}

// Write appends interleaved samples.
func (w *Writer) Write(samples []int16) error {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: w.format.Channels,
			SampleRate:  w.format.SampleRate,
		},
		Data:           data,
		SourceBitDepth: w.format.BitDepth,
	}
	if err := w.enc.Write(buf); err != nil {
		return fmt.Errorf("%w: encode samples: %w", ErrInvalidWAV, err)
	}
	return nil
}

// Close finalizes the container headers and closes the file.
func (w *Writer) Close() error {
	encErr := w.enc.Close()
	fileErr := w.f.Close()
	if encErr != nil {
		return fmt.Errorf("%w: finalize: %w", ErrInvalidWAV, encErr)
	}
	if fileErr != nil {
		return fmt.Errorf("close %s: %w", w.f.Name(), fileErr)
	}
	return nil
}

// WriteFile writes samples to a new WAV file at path.
func WriteFile(path string, format Format, samples []int16) error {
	w, err := Create(path, format)
	if err != nil {
		return err
	}
	if err := w.Write(samples); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
