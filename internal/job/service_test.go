package job

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/audiosplice-api/internal/audio"
	"github.com/maauso/audiosplice-api/internal/audio/pcm"
	"github.com/maauso/audiosplice-api/internal/storage"
)

// s3Store behaves like LocalStorage but records archive uploads.
type s3Store struct {
	*storage.LocalStorage
	mock.Mock
}

func (m *s3Store) UploadToS3(ctx context.Context, key string, data io.Reader) (string, error) {
	body, _ := io.ReadAll(data)
	args := m.Called(ctx, key, body)
	return args.String(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLocalStore(t *testing.T) *storage.LocalStorage {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return store
}

// wavBytes encodes seconds of a mono 1 kHz sine-like ramp.
func wavBytes(t *testing.T, seconds int) []byte {
	t.Helper()
	samples := make([]int16, seconds*1000)
	for i := range samples {
		samples[i] = int16(i%200 - 100)
	}
	path := filepath.Join(t.TempDir(), "in.wav")
	require.NoError(t, pcm.WriteFile(path, pcm.Format{SampleRate: 1000, Channels: 1, BitDepth: pcm.BitDepth}, samples))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestNewProcessAudioService(t *testing.T) {
	store := newLocalStore(t)

	svc := NewProcessAudioService(store, nil)
	require.NotNil(t, svc)
	assert.Equal(t, slog.Default(), svc.logger)
	assert.Equal(t, "archives/", svc.archivePrefix)

	logger := testLogger()
	svc = NewProcessAudioService(store, logger, WithArchivePrefix("zips/"), WithProcessorFactory(nil))
	assert.Equal(t, logger, svc.logger)
	assert.Equal(t, "zips/", svc.archivePrefix)
	assert.NotNil(t, svc.newProcessor)
}

func TestProcessAudioService_Splice(t *testing.T) {
	store := newLocalStore(t)
	svc := NewProcessAudioService(store, testLogger())
	ctx := context.Background()

	out, err := svc.Process(ctx, ProcessAudioInput{
		Source: bytes.NewReader(wavBytes(t, 10)),
		Config: audio.SpliceConfig{Duration: 2, Count: 3, Reverse: true},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.JobID, "job-"))
	assert.Empty(t, out.ArchiveURL)
	require.Len(t, out.Result.Files, 3)
	assert.Equal(t, audio.TypeSplice, out.Result.Metadata.ProcessorType)
	assert.InDelta(t, 10.0, out.Result.Metadata.InputDuration, 1e-9)
	for _, f := range out.Result.Files {
		assert.FileExists(t, f)
		assert.Equal(t, filepath.Join(store.TempDir(), out.JobID), filepath.Dir(f))
	}

	zr, err := zip.OpenReader(out.ArchivePath)
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	_ = zr.Close()
	assert.Equal(t, []string{"splice_0.wav", "splice_1.wav", "splice_2.wav"}, names)

	rc, err := svc.OpenArchive(ctx, out)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	svc.Cleanup(ctx, out.InputPath, out.Result.Files, out.ArchivePath)
	assert.Empty(t, dirEntries(t, store.TempDir()))
}

func TestProcessAudioService_Normalize(t *testing.T) {
	store := newLocalStore(t)
	svc := NewProcessAudioService(store, testLogger())
	ctx := context.Background()

	out, err := svc.Process(ctx, ProcessAudioInput{
		Source: bytes.NewReader(wavBytes(t, 3)),
		Config: audio.NormalizeConfig{TargetLevel: 0.5},
	})
	require.NoError(t, err)
	require.Len(t, out.Result.Files, 1)
	assert.Equal(t, "normalized_audio.wav", filepath.Base(out.Result.Files[0]))

	svc.Cleanup(ctx, out.InputPath, out.Result.Files, out.ArchivePath)
	assert.Empty(t, dirEntries(t, store.TempDir()))
}

func TestProcessAudioService_InvalidConfigTouchesNoFiles(t *testing.T) {
	tests := []struct {
		name string
		cfg  audio.Config
		want audio.Kind
	}{
		{"zero duration", audio.SpliceConfig{Duration: 0, Count: 1}, audio.KindInvalidDuration},
		{"zero count", audio.SpliceConfig{Duration: 1, Count: 0}, audio.KindInvalidSpliceCount},
		{"target too high", audio.NormalizeConfig{TargetLevel: 1.5}, audio.KindProcessing},
		{"nil config", nil, audio.KindProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newLocalStore(t)
			svc := NewProcessAudioService(store, testLogger())

			out, err := svc.Process(context.Background(), ProcessAudioInput{
				Source: bytes.NewReader([]byte("never read")),
				Config: tt.cfg,
			})
			require.Error(t, err)
			assert.Nil(t, out)
			assert.Equal(t, tt.want, audio.KindOf(err))
			assert.Empty(t, dirEntries(t, store.TempDir()))
		})
	}
}

func TestProcessAudioService_Validate(t *testing.T) {
	svc := NewProcessAudioService(newLocalStore(t), testLogger())

	assert.NoError(t, svc.Validate(audio.SpliceConfig{Duration: 1, Count: 1}))
	assert.ErrorIs(t, svc.Validate(audio.SpliceConfig{Duration: -1, Count: 1}), audio.ErrInvalidDuration)
}

func TestProcessAudioService_ProcessingFailureCleansUp(t *testing.T) {
	tests := []struct {
		name   string
		source []byte
		cfg    audio.Config
		want   []audio.Kind
	}{
		{"not a wav", []byte("definitely not RIFF"), audio.SpliceConfig{Duration: 1, Count: 1}, []audio.Kind{audio.KindWav, audio.KindInvalidFormat}},
		{"clip longer than source", nil, audio.SpliceConfig{Duration: 5, Count: 1}, []audio.Kind{audio.KindProcessing}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newLocalStore(t)
			svc := NewProcessAudioService(store, testLogger())

			source := tt.source
			if source == nil {
				source = wavBytes(t, 2)
			}
			_, err := svc.Process(context.Background(), ProcessAudioInput{
				Source: bytes.NewReader(source),
				Config: tt.cfg,
			})
			require.Error(t, err)
			assert.Contains(t, tt.want, audio.KindOf(err))
			assert.Empty(t, dirEntries(t, store.TempDir()))
		})
	}
}

// failingProcessor writes one partial output and then fails.
type failingProcessor struct{}

func (failingProcessor) Process(_, outputDir string, _ audio.Config) (*audio.Result, error) {
	_ = os.WriteFile(filepath.Join(outputDir, "splice_0.wav"), []byte("partial"), 0o600)
	return nil, errors.Join(audio.ErrIO, errors.New("disk full"))
}
func (failingProcessor) ValidateConfig(audio.Config) error { return nil }
func (failingProcessor) Type() string                      { return audio.TypeSplice }

func TestProcessAudioService_PartialOutputsRemoved(t *testing.T) {
	store := newLocalStore(t)
	svc := NewProcessAudioService(store, testLogger(),
		WithProcessorFactory(func(audio.Config, *slog.Logger) (audio.Processor, error) {
			return failingProcessor{}, nil
		}),
	)

	_, err := svc.Process(context.Background(), ProcessAudioInput{
		Source: bytes.NewReader([]byte("x")),
		Config: audio.SpliceConfig{Duration: 1, Count: 1},
	})
	require.ErrorIs(t, err, audio.ErrIO)
	assert.Empty(t, dirEntries(t, store.TempDir()))
}

func TestProcessAudioService_PushToS3(t *testing.T) {
	store := &s3Store{LocalStorage: newLocalStore(t)}
	svc := NewProcessAudioService(store, testLogger())
	ctx := context.Background()

	store.On("UploadToS3", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "archives/job-") && strings.HasSuffix(key, ".zip")
	}), mock.MatchedBy(func(body []byte) bool {
		return bytes.HasPrefix(body, []byte("PK"))
	})).Return("https://bucket.s3.amazonaws.com/archives/x.zip", nil)

	out, err := svc.Process(ctx, ProcessAudioInput{
		Source:   bytes.NewReader(wavBytes(t, 4)),
		Config:   audio.SpliceConfig{Duration: 1, Count: 2},
		PushToS3: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/archives/x.zip", out.ArchiveURL)
	store.AssertExpectations(t)

	svc.Cleanup(ctx, out.InputPath, out.Result.Files, out.ArchivePath)
	assert.Empty(t, dirEntries(t, store.TempDir()))
}

func TestProcessAudioService_PushToS3NotConfigured(t *testing.T) {
	store := newLocalStore(t)
	svc := NewProcessAudioService(store, testLogger())

	_, err := svc.Process(context.Background(), ProcessAudioInput{
		Source:   bytes.NewReader(wavBytes(t, 4)),
		Config:   audio.SpliceConfig{Duration: 1, Count: 1},
		PushToS3: true,
	})
	require.ErrorIs(t, err, storage.ErrS3NotConfigured)
	assert.ErrorIs(t, err, audio.ErrIO)
	assert.Empty(t, dirEntries(t, store.TempDir()))
}

func TestProcessAudioService_CleanupIgnoresMissing(t *testing.T) {
	store := newLocalStore(t)
	svc := NewProcessAudioService(store, testLogger())

	assert.NotPanics(t, func() {
		svc.Cleanup(context.Background(),
			filepath.Join(store.TempDir(), "gone"),
			[]string{filepath.Join(store.TempDir(), "job-x", "splice_0.wav")},
			"",
		)
	})
}
