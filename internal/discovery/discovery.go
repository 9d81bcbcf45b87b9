// Package discovery finds job files and media in a directory.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/five82/framescope/internal/logging"
	"github.com/five82/framescope/internal/util"
)

// IsJobFile reports whether path names a YAML job file.
func IsJobFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// FindInputs lists the job files and video files directly inside dir, sorted
// case-insensitively by name. Hidden files and subdirectories are skipped.
func FindInputs(dir string, logger *logging.Logger) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("directory does not exist: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", dir, err)
	}

	var inputs []string
	skipped := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		path := filepath.Join(dir, name)
		if IsJobFile(path) || util.IsVideoFile(path) {
			inputs = append(inputs, path)
		} else {
			skipped++
		}
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("no jobs or video files found in %s", dir)
	}

	slices.SortFunc(inputs, func(a, b string) int {
		return strings.Compare(strings.ToLower(filepath.Base(a)), strings.ToLower(filepath.Base(b)))
	})

	logger.Info("Discovered inputs", "dir", dir, "count", len(inputs), "skipped", skipped)
	for _, p := range inputs[:min(5, len(inputs))] {
		logger.Debug("Input", "name", filepath.Base(p))
	}
	return inputs, nil
}
