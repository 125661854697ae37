package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractZIPSingle unpacks a zip archive that wraps exactly one record
// file and returns the extracted path. Exports are shipped zipped one
// file per archive, so anything else is rejected rather than guessed at.
func ExtractZIPSingle(zipPath, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	var entry *zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if entry != nil {
			return "", eris.Errorf("zip %s holds more than one file", filepath.Base(zipPath))
		}
		entry = f
	}
	if entry == nil {
		return "", eris.Errorf("zip %s holds no files", filepath.Base(zipPath))
	}

	// Flatten the entry name; nested paths in a single-file archive are
	// noise and a zip-slip vector.
	name := filepath.Base(entry.Name)
	if name == "." || name == string(os.PathSeparator) || strings.HasPrefix(name, "..") {
		return "", eris.Errorf("zip entry has illegal name %q", entry.Name)
	}
	destPath := filepath.Join(destDir, name)

	rc, err := entry.Open()
	if err != nil {
		return "", eris.Wrap(err, "open zip entry")
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrap(err, "create extracted file")
	}

	_, err = io.Copy(out, rc)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", eris.Wrap(err, "write extracted file")
	}
	return destPath, nil
}
