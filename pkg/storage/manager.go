package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// PartSuffix marks files that are still being written
const PartSuffix = ".part"

// ErrNoFileName is returned for URLs whose path has no usable last segment
var ErrNoFileName = errors.New("URL has no file name")

// Manager owns one output directory and every file written into it
type Manager struct {
	outputDir string
}

// NewManager creates a storage manager. The directory is created lazily by
// EnsureDir.
func NewManager(outputDir string) *Manager {
	return &Manager{outputDir: outputDir}
}

// EnsureDir creates the output directory if it doesn't exist
func (m *Manager) EnsureDir() error {
	if err := os.MkdirAll(m.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// Path returns where a file called name is stored
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// Exists reports whether a finished file called name is present
func (m *Manager) Exists(name string) bool {
	info, err := os.Stat(m.Path(name))
	return err == nil && !info.IsDir()
}

// Create opens a temporary file for name. Nothing appears under the final
// name until Commit.
func (m *Manager) Create(name string) (*PartialFile, error) {
	final := m.Path(name)
	tmp := final + PartSuffix

	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	return &PartialFile{file: f, tmpPath: tmp, finalPath: final}, nil
}

// Discard removes any partial or finished output for name
func (m *Manager) Discard(name string) error {
	var errs []error
	for _, p := range []string{m.Path(name) + PartSuffix, m.Path(name)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PartialFile is a file being downloaded
type PartialFile struct {
	file      *os.File
	tmpPath   string
	finalPath string
	done      bool
}

// Write appends p to the temporary file
func (p *PartialFile) Write(b []byte) (int, error) {
	return p.file.Write(b)
}

// Commit closes the file and moves it to its final name
func (p *PartialFile) Commit() error {
	if p.done {
		return nil
	}
	p.done = true

	if err := p.file.Close(); err != nil {
		os.Remove(p.tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(p.tmpPath, p.finalPath); err != nil {
		os.Remove(p.tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// Abort closes and deletes the temporary file. It is a no-op after Commit.
func (p *PartialFile) Abort() {
	if p.done {
		return
	}
	p.done = true
	p.file.Close()
	os.Remove(p.tmpPath)
}

// FileNameFromURL returns the last segment of the URL path as it appears in
// the URL, percent-escapes included. The query string and fragment are not
// part of the name.
func FileNameFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	p := u.EscapedPath()
	if p == "" {
		p = u.Opaque
	}
	if p == "" || strings.HasSuffix(p, "/") {
		return "", fmt.Errorf("%w: %s", ErrNoFileName, raw)
	}

	name := path.Base(p)
	if name == "." || name == ".." || name == "/" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %s", ErrNoFileName, raw)
	}
	return name, nil
}

// SaveURLList writes urls to file, one per line, replacing any previous
// content atomically
func SaveURLList(file string, urls []string) error {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for URL list: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(file)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary URL list: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeLines(tmp, urls); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write URL list: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set URL list permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close URL list: %w", err)
	}
	if err := os.Rename(tmp.Name(), file); err != nil {
		return fmt.Errorf("failed to replace URL list: %w", err)
	}
	return nil
}

func writeLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
