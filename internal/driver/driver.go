// Package driver collects source files for the jackc and vmtranslator
// command-line tools from a file-or-directory argument.
package driver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// CollectFiles returns the files to translate for fileOrDir: itself if
// it names a file, or every immediate child with the given extension
// (including the dot, e.g. ".jack") if it names a directory.
func CollectFiles(fileOrDir, extension string) ([]string, error) {
	info, err := os.Stat(fileOrDir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot stat %q", fileOrDir)
	}

	if !info.IsDir() {
		return []string{fileOrDir}, nil
	}

	entries, err := os.ReadDir(fileOrDir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read directory %q", fileOrDir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), extension) {
			continue
		}
		files = append(files, filepath.Join(fileOrDir, e.Name()))
	}
	return files, nil
}

// OutputPath replaces path's extension with newExt (which must
// include the leading dot).
func OutputPath(path, newExt string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + newExt
}

// CombinedOutputPath derives the single merged output path used when
// fileOrDir names a directory: a file inside that directory named
// after the directory's own base name with newExt appended. For a
// file, it is OutputPath(fileOrDir, newExt).
func CombinedOutputPath(fileOrDir, newExt string) string {
	info, err := os.Stat(fileOrDir)
	if err == nil && info.IsDir() {
		abs, err := filepath.Abs(fileOrDir)
		if err != nil {
			abs = fileOrDir
		}
		return filepath.Join(fileOrDir, filepath.Base(abs)+newExt)
	}
	return OutputPath(fileOrDir, newExt)
}
