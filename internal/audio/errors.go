package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/maauso/audiosplice-api/internal/audio/pcm"
)

// Kind is the machine-matchable tag of a processing error.
type Kind string

// Error kinds reported to callers.
const (
	KindIO                 Kind = "IoError"
	KindWav                Kind = "WavError"
	KindInvalidFormat      Kind = "InvalidFormat"
	KindInvalidDuration    Kind = "InvalidDuration"
	KindInvalidSpliceCount Kind = "InvalidSpliceCount"
	KindProcessing         Kind = "ProcessingError"
	KindFileNotFound       Kind = "FileNotFound"
)

// Sentinel errors, one per Kind. Errors returned by this package wrap exactly
// one of them.
var (
	ErrIO                 = errors.New("io error")
	ErrWav                = errors.New("wav error")
	ErrInvalidFormat      = errors.New("invalid format")
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrInvalidSpliceCount = errors.New("invalid splice count")
	ErrProcessing         = errors.New("processing error")
	ErrFileNotFound       = errors.New("file not found")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidDuration, KindInvalidDuration},
	{ErrInvalidSpliceCount, KindInvalidSpliceCount},
	{ErrFileNotFound, KindFileNotFound},
	{ErrInvalidFormat, KindInvalidFormat},
	{ErrWav, KindWav},
	{ErrIO, KindIO},
	{ErrProcessing, KindProcessing},
}

// KindOf returns the Kind of err. Errors that do not originate from this
// package are reported as KindProcessing.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindProcessing
}

// IsValidation reports whether err was raised by configuration validation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidSpliceCount) ||
		errors.Is(err, errInvalidConfig)
}

// errInvalidConfig marks ProcessingErrors raised by ValidateConfig.
var errInvalidConfig = fmt.Errorf("%w: invalid config", ErrProcessing)

func processingError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProcessing, fmt.Sprintf(format, args...))
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidConfig, fmt.Sprintf(format, args...))
}

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

// sourceError classifies a failure to open or decode the source recording.
func sourceError(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrFileNotFound, err)
	case errors.Is(err, pcm.ErrUnsupportedFormat):
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	case errors.Is(err, pcm.ErrInvalidWAV):
		return fmt.Errorf("%w: %w", ErrWav, err)
	default:
		return ioError("open source", err)
	}
}

// sinkError classifies a failure to create or write an output file.
func sinkError(err error) error {
	if errors.Is(err, pcm.ErrInvalidWAV) || errors.Is(err, pcm.ErrUnsupportedFormat) {
		return fmt.Errorf("%w: %w", ErrWav, err)
	}
	return ioError("write output", err)
}
