// Package archive bundles processing outputs into a single ZIP file.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/maauso/audiosplice-api/internal/audio"
)

// Zip writes every file of result into a new archive at zipPath, each under
// its own base name. Entries are stored uncompressed since PCM gains little
// from deflate. Failures wrap audio.ErrIO.
func Zip(result *audio.Result, zipPath string) error {
	f, err := os.Create(zipPath) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return fmt.Errorf("%w: create archive: %w", audio.ErrIO, err)
	}

	zw := zip.NewWriter(f)
	for i, path := range result.Files {
		if err := addFile(zw, entryName(path, i), path); err != nil {
			_ = zw.Close()
			_ = f.Close()
			return fmt.Errorf("%w: add %s to archive: %w", audio.ErrIO, path, err)
		}
	}

	if err := zw.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: finalize archive: %w", audio.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close archive: %w", audio.ErrIO, err)
	}
	return nil
}

// entryName returns the base name of path, or output_{i}.wav when path has
// no usable base name.
func entryName(path string, i int) string {
	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return fmt.Sprintf("output_%d.wav", i)
	}
	return name
}

func addFile(zw *zip.Writer, name, path string) error {
	src, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Store,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
