package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File permissions
const (
	DefaultDirPermissions  = 0o755
	DefaultFilePermissions = 0o644
)

// ErrFileNotFound is returned when no file matches a download stem.
var ErrFileNotFound = errors.New("file not found")

// File extensions to skip
var (
	SkippedExtensions = []string{".part", ".ytdl", ".temp"}
)

// CreateDirectoryIfNotExists creates a directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if err := os.MkdirAll(dirPath, DefaultDirPermissions); err != nil {
		return fmt.Errorf("create directory %s: %w", dirPath, err)
	}
	return nil
}

// FileExists reports whether path exists and is a regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// RemoveIfExists removes path, ignoring a missing file
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// RelativeTo returns target relative to base using forward slashes, so the
// manifest is identical across platforms
func RelativeTo(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", target, err)
	}
	return filepath.ToSlash(rel), nil
}

// ReplaceExt swaps the extension of path for ext (which includes the dot)
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// FindFileWithFallback returns dir/stem.preferredExt when it exists, otherwise
// the first completed file named stem.* in dir. yt-dlp may keep the source
// container when the requested codec cannot be produced.
func FindFileWithFallback(dir, stem, preferredExt string) (string, error) {
	if preferredExt != "" {
		candidate := filepath.Join(dir, stem+"."+strings.TrimPrefix(preferredExt, "."))
		if FileExists(candidate) {
			return candidate, nil
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, globEscape(stem)+".*"))
	if err != nil {
		return "", fmt.Errorf("search %s: %w", dir, err)
	}
	sort.Strings(matches)
	for _, match := range matches {
		if isPartialDownload(match) || !FileExists(match) {
			continue
		}
		return match, nil
	}
	return "", fmt.Errorf("%w: %s.* in %s", ErrFileNotFound, stem, dir)
}

// isPartialDownload reports files yt-dlp leaves behind while downloading
func isPartialDownload(path string) bool {
	lower := strings.ToLower(filepath.Base(path))
	for _, ext := range SkippedExtensions {
		if strings.HasSuffix(lower, ext) || strings.Contains(lower, ext+".") {
			return true
		}
	}
	return false
}

// globEscape escapes glob metacharacters; video ids may contain none of them
// today but stems are user controlled through the CSV
func globEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
