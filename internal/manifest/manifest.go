// Package manifest writes the JSON-lines dataset manifest: one object per
// processed clip with its relative path, duration and labels.
package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ytget/audioset-dl/internal/platform"
)

// Entry is a single manifest line.
type Entry struct {
	AudioFilepath string   `json:"audio_filepath"`
	Duration      float64  `json:"duration"`
	Labels        []string `json:"labels"`
}

// Recorder accepts manifest entries. Implementations are safe for concurrent use.
type Recorder interface {
	Append(Entry) error
	Count() int
	Close() error
}

// Writer appends entries to a manifest file.
type Writer struct {
	mu    sync.Mutex
	path  string
	file  *os.File
	enc   *json.Encoder
	count int
}

var _ Recorder = (*Writer)(nil)

// Open starts a fresh manifest at path, removing any manifest a previous run
// left behind.
func Open(path string) (*Writer, error) {
	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(path)); err != nil {
		return nil, err
	}
	if err := platform.RemoveIfExists(path); err != nil {
		return nil, fmt.Errorf("remove stale manifest: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, platform.DefaultFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	return &Writer{
		path: path,
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// Path returns the manifest location.
func (w *Writer) Path() string {
	return w.path
}

// Append writes entry as one line. Each line is flushed to the file
// immediately so an interrupted run keeps every completed clip.
func (w *Writer) Append(entry Entry) error {
	if entry.Labels == nil {
		entry.Labels = []string{}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return errors.New("manifest closed")
	}
	if err := w.enc.Encode(entry); err != nil {
		return fmt.Errorf("write manifest entry: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of entries written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close syncs and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	w.file = nil
	return errors.Join(syncErr, closeErr)
}

// Discard is a Recorder used when manifest creation is disabled.
type Discard struct {
	mu    sync.Mutex
	count int
}

// Append counts and drops the entry.
func (d *Discard) Append(Entry) error {
	d.mu.Lock()
	d.count++
	d.mu.Unlock()
	return nil
}

// Count returns the number of dropped entries.
func (d *Discard) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// Close is a no-op.
func (d *Discard) Close() error { return nil }

// Read loads every entry of the manifest at path.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses JSON-lines entries from r, skipping blank lines.
func Decode(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("manifest line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return entries, nil
}
