// Package job provides the ProcessAudioService use case. It runs one
// processing request end to end: store the upload, run the processor chosen
// by the config, package the outputs and optionally push the archive to S3.
package job

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/maauso/audiosplice-api/internal/archive"
	"github.com/maauso/audiosplice-api/internal/audio"
	"github.com/maauso/audiosplice-api/internal/job/id"
	"github.com/maauso/audiosplice-api/internal/storage"
)

// ProcessAudioInput contains the input parameters for one request.
type ProcessAudioInput struct {
	// Source is the uploaded WAV content.
	Source io.Reader
	// Config selects and configures the processor.
	Config audio.Config
	// PushToS3 uploads the archive to S3 instead of returning it inline.
	PushToS3 bool
}

// ProcessAudioOutput contains the result of one request. All paths are
// owned by the caller until passed to Cleanup.
type ProcessAudioOutput struct {
	// JobID is the unique identifier of the request.
	JobID string
	// InputPath is where the upload was stored.
	InputPath string
	// Result lists the produced files and run metadata.
	Result *audio.Result
	// ArchivePath is the local ZIP containing every output file.
	ArchivePath string
	// ArchiveURL is the S3 URL of the archive when PushToS3 was set.
	ArchiveURL string
}

// ProcessorFactory builds the processor for a config.
type ProcessorFactory func(cfg audio.Config, logger *slog.Logger) (audio.Processor, error)

// ProcessAudioService coordinates storage, processing and packaging.
// It holds no per-request state; concurrent calls use distinct job IDs and
// therefore distinct paths.
type ProcessAudioService struct {
	store         storage.Storage
	logger        *slog.Logger
	newProcessor  ProcessorFactory
	archivePrefix string
}

// Option configures a ProcessAudioService.
type Option func(*ProcessAudioService)

// WithProcessorFactory overrides how processors are built.
func WithProcessorFactory(f ProcessorFactory) Option {
	return func(s *ProcessAudioService) {
		if f != nil {
			s.newProcessor = f
		}
	}
}

// WithArchivePrefix sets the S3 key prefix for uploaded archives.
func WithArchivePrefix(prefix string) Option {
	return func(s *ProcessAudioService) {
		s.archivePrefix = prefix
	}
}

// NewProcessAudioService creates a new ProcessAudioService.
func NewProcessAudioService(store storage.Storage, logger *slog.Logger, opts ...Option) *ProcessAudioService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ProcessAudioService{
		store:         store,
		logger:        logger,
		newProcessor:  audio.NewProcessor,
		archivePrefix: "archives/",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate runs the processor's pre-flight checks on cfg without any I/O.
func (s *ProcessAudioService) Validate(cfg audio.Config) error {
	p, err := s.newProcessor(cfg, s.logger)
	if err != nil {
		return err
	}
	return p.ValidateConfig(cfg)
}

// Process executes the complete workflow:
//  1. Validate the config (no file is touched on failure)
//  2. Save the upload under a fresh job ID
//  3. Run the processor into the job's work directory
//  4. Zip the outputs
//  5. Optionally push the archive to S3
//
// On failure every file created for the request is removed before the error
// is returned. On success the caller must call Cleanup.
func (s *ProcessAudioService) Process(ctx context.Context, input ProcessAudioInput) (*ProcessAudioOutput, error) {
	p, err := s.newProcessor(input.Config, s.logger)
	if err != nil {
		return nil, err
	}
	if err := p.ValidateConfig(input.Config); err != nil {
		return nil, err
	}

	jobID := id.Generate()
	logger := s.logger.With(slog.String("job_id", jobID))

	inputPath, err := s.store.SaveTemp(ctx, jobID+"_input", input.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: save upload: %w", audio.ErrIO, err)
	}
	workDir, err := s.store.WorkDir(ctx, jobID)
	if err != nil {
		s.discard(ctx, logger, inputPath, "", "")
		return nil, fmt.Errorf("%w: create work dir: %w", audio.ErrIO, err)
	}

	logger.Info("processing audio",
		slog.String("processor", p.Type()),
		slog.String("input", inputPath),
	)

	result, err := p.Process(inputPath, workDir, input.Config)
	if err != nil {
		logger.Warn("processing failed",
			slog.String("error_type", string(audio.KindOf(err))),
			slog.String("error", err.Error()),
		)
		s.discard(ctx, logger, inputPath, workDir, "")
		return nil, err
	}

	out := &ProcessAudioOutput{
		JobID:       jobID,
		InputPath:   inputPath,
		Result:      result,
		ArchivePath: filepath.Join(s.store.TempDir(), jobID+".zip"),
	}
	if err := archive.Zip(result, out.ArchivePath); err != nil {
		s.discard(ctx, logger, inputPath, workDir, out.ArchivePath)
		return nil, err
	}

	if input.PushToS3 {
		url, err := s.upload(ctx, jobID, out.ArchivePath)
		if err != nil {
			s.discard(ctx, logger, inputPath, workDir, out.ArchivePath)
			return nil, err
		}
		out.ArchiveURL = url
	}

	logger.Info("processing completed",
		slog.String("processor", result.Metadata.ProcessorType),
		slog.Int("outputs", len(result.Files)),
		slog.Int64("processing_time_ms", result.Metadata.ProcessingTimeMs),
		slog.Bool("pushed_to_s3", out.ArchiveURL != ""),
	)
	return out, nil
}

func (s *ProcessAudioService) upload(ctx context.Context, jobID, archivePath string) (string, error) {
	f, err := s.store.LoadTemp(ctx, archivePath)
	if err != nil {
		return "", fmt.Errorf("%w: open archive: %w", audio.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	url, err := s.store.UploadToS3(ctx, s.archivePrefix+jobID+".zip", f)
	if err != nil {
		return "", fmt.Errorf("%w: %w", audio.ErrIO, err)
	}
	return url, nil
}

// OpenArchive opens the archive of a finished request for streaming.
func (s *ProcessAudioService) OpenArchive(ctx context.Context, out *ProcessAudioOutput) (io.ReadCloser, error) {
	rc, err := s.store.LoadTemp(ctx, out.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open archive: %w", audio.ErrIO, err)
	}
	return rc, nil
}

// Cleanup deletes the input file, the produced outputs, their directory
// and the archive. It is best effort: failures are logged, never returned.
func (s *ProcessAudioService) Cleanup(ctx context.Context, inputPath string, outputs []string, archivePath string) {
	paths := make([]string, 0, len(outputs)+3)
	paths = append(paths, inputPath)
	paths = append(paths, outputs...)
	if len(outputs) > 0 {
		paths = append(paths, filepath.Dir(outputs[0]))
	}
	paths = append(paths, archivePath)

	// CleanupTemp only reports the first failure, so go path by path.
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.store.CleanupTemp(ctx, []string{p}); err != nil {
			s.logger.Warn("failed to remove temp path",
				slog.String("path", p),
				slog.String("error", err.Error()),
			)
		}
	}
	s.logger.Debug("cleanup completed", slog.String("input", inputPath))
}

// discard removes everything a failed request left behind, including partial
// outputs that never made it into a Result.
func (s *ProcessAudioService) discard(ctx context.Context, logger *slog.Logger, inputPath, workDir, archivePath string) {
	var outputs []string
	if workDir != "" {
		entries, err := os.ReadDir(workDir)
		if err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to list work dir", slog.String("path", workDir), slog.String("error", err.Error()))
		}
		for _, e := range entries {
			outputs = append(outputs, filepath.Join(workDir, e.Name()))
		}
	}
	s.Cleanup(ctx, inputPath, outputs, archivePath)
	if workDir != "" && len(outputs) == 0 {
		s.Cleanup(ctx, workDir, nil, "")
	}
}
