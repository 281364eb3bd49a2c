package archive

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"
)

// PackZip writes the contents of srcDir into a zip archive at dstPath.
// File modes are preserved so executables stay executable after unzip.
func PackZip(srcDir, dstPath string) error {
	f, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create destination file %q: %w", dstPath, err)
	}
	defer f.Close()

	zipWriter := zip.NewWriter(f)

	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == srcDir {
			// don't add the root itself
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("get info for %q: %w", path, err)
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			log.Warn().Str("path", path).Msg("skipping non-regular file")
			return nil
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("create zip header for %q: %w", path, err)
		}

		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return fmt.Errorf("compute relative path for %q: %w", path, err)
		}
		header.Name = filepath.ToSlash(relPath)
		if info.IsDir() {
			header.Name += "/"
			header.Method = zip.Store
		} else {
			header.Method = zip.Deflate
		}

		w, err := zipWriter.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("write zip header for %q: %w", path, err)
		}
		if info.IsDir() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open file %q: %w", path, err)
		}
		defer file.Close()

		if _, err := io.Copy(w, file); err != nil {
			return fmt.Errorf("copy file %q to zip: %w", path, err)
		}
		log.Debug().Msgf("added file to archive: %s", header.Name)
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("finish zip %q: %w", dstPath, err)
	}
	return f.Close()
}
