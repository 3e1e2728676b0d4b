package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/audiosplice-api/internal/audio"
)

func TestZip(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"splice_0.wav": "first",
		"splice_1.wav": "second",
	}
	result := &audio.Result{}
	for _, name := range []string{"splice_0.wav", "splice_1.wav"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(files[name]), 0o600))
		result.Files = append(result.Files, path)
	}

	zipPath := filepath.Join(dir, "out.zip")
	require.NoError(t, Zip(result, zipPath))

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 2)
	for i, f := range zr.File {
		assert.Equal(t, filepath.Base(result.Files[i]), f.Name)
		assert.Equal(t, zip.Store, f.Method)

		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		require.NoError(t, err)
		assert.Equal(t, files[f.Name], string(content))
	}
}

func TestZip_EmptyResult(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "empty.zip")
	require.NoError(t, Zip(&audio.Result{}, zipPath))

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()
	assert.Empty(t, zr.File)
}

func TestZip_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing input file", func(t *testing.T) {
		err := Zip(&audio.Result{Files: []string{filepath.Join(dir, "gone.wav")}}, filepath.Join(dir, "a.zip"))
		assert.ErrorIs(t, err, audio.ErrIO)
		assert.Equal(t, audio.KindIO, audio.KindOf(err))
	})

	t.Run("unwritable archive path", func(t *testing.T) {
		err := Zip(&audio.Result{}, filepath.Join(dir, "no", "such", "dir.zip"))
		assert.ErrorIs(t, err, audio.ErrIO)
	})
}

func TestEntryName(t *testing.T) {
	assert.Equal(t, "clip.wav", entryName("/tmp/x/clip.wav", 3))
	assert.Equal(t, "output_3.wav", entryName("", 3))
	assert.Equal(t, "output_0.wav", entryName("/", 0))
}
