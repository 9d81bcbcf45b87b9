package util

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// videoExtensions lists the container extensions treated as media inputs.
var videoExtensions = []string{
	".avi", ".flv", ".m2ts", ".m4v", ".mkv", ".mov", ".mp4",
	".mpeg", ".mpg", ".ogv", ".ts", ".vob", ".webm", ".wmv",
}

// IsVideoFile reports whether path is an existing regular file with a video
// extension. The extension match ignores case.
func IsVideoFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return slices.Contains(videoExtensions, strings.ToLower(filepath.Ext(path)))
}

// GetFileStem returns the base name of path without its final extension.
func GetFileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// EnsureDirectory creates path and any missing parents.
func EnsureDirectory(path string) error {
	return os.MkdirAll(path, 0755)
}

// FramePath names the image written for one frame: <dir>/<stem>_<frame>.png,
// with the frame zero padded to six digits.
func FramePath(dir, mediaPath string, frame int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%06d.png", GetFileStem(mediaPath), frame))
}
