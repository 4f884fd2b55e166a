// Package export reads and writes the flat files of a catalog run: the slug
// list and the product CSV.
package export

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ReadSlugs reads one slug per line. Lines are trimmed and blank lines are
// skipped.
func ReadSlugs(r io.Reader) ([]string, error) {
	var slugs []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			slugs = append(slugs, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("export: read slugs: %w", err)
	}
	return slugs, nil
}

// WriteSlugs writes one slug per line.
func WriteSlugs(w io.Writer, slugs []string) error {
	bw := bufio.NewWriter(w)
	for _, slug := range slugs {
		if _, err := bw.WriteString(slug + "\n"); err != nil {
			return fmt.Errorf("export: write slugs: %w", err)
		}
	}
	return bw.Flush()
}

// ReadSlugsFile reads the slug list at path.
func ReadSlugsFile(path string) ([]string, error) {
	slog.Info("reading slugs", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSlugs(f)
}

// WriteSlugsFile writes the slug list to path, creating parent directories.
func WriteSlugsFile(path string, slugs []string) error {
	slog.Info("writing slugs", "path", path, "count", len(slugs))
	return writeFile(path, func(w io.Writer) error { return WriteSlugs(w, slugs) })
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
