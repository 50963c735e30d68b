package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrUnknownExtension is returned when no language is mapped to a file's
// extension.
var ErrUnknownExtension = errors.New("no language mapped to file extension")

// DefaultExtensions maps file extensions to language keys.
var DefaultExtensions = map[string]string{
	".py":  "python",
	".c":   "c",
	".h":   "c",
	".go":  "go",
	".js":  "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
}

// LanguageFor returns the language key mapped to path's extension.
func (e *Engine) LanguageFor(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := e.extensions[ext]; ok {
		return lang, nil
	}
	return "", fmt.Errorf("%s: %w %q", path, ErrUnknownExtension, ext)
}

// Extensions returns the mapped file extensions in sorted order.
func (e *Engine) Extensions() []string {
	return slices.Sorted(maps.Keys(e.extensions))
}

// CollectFiles expands paths into the list of files to parse. Files are
// kept as given; directories are walked recursively and contribute the
// files whose extension maps to a language. Hidden directories are
// skipped. The directory results are sorted and duplicates removed.
func (e *Engine) CollectFiles(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if _, err := e.LanguageFor(p); err == nil {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
		slices.Sort(found)
		for _, p := range found {
			add(p)
		}
	}
	return files, nil
}
