// Package exporter streams fetched result rows to stdout or an output file.
package exporter

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdquery/tdquery-go/internal/query"
)

// OpenOutputFile opens an output file, handling compression automatically based on extension.
func OpenOutputFile(filePath string) (io.WriteCloser, error) {
	if filePath == "" {
		return nil, fmt.Errorf("output path must not be empty")
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == ".bz2" {
		return nil, fmt.Errorf("bzip2 output compression not supported, use .gz instead")
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	if ext == ".gz" {
		return &gzipWriter{file: file, writer: gzip.NewWriter(file)}, nil
	}
	return file, nil
}

// gzipWriter wraps gzip writer and file to close both properly.
type gzipWriter struct {
	file   *os.File
	writer *gzip.Writer
}

func (g *gzipWriter) Write(p []byte) (int, error) {
	return g.writer.Write(p)
}

func (g *gzipWriter) Close() error {
	if err := g.writer.Close(); err != nil {
		g.file.Close()
		return err
	}
	return g.file.Close()
}

// DetectOutputFormat guesses the row format from an output file name.
// Returns false when the name carries no .csv or .tsv extension.
func DetectOutputFormat(filePath string) (query.Format, bool) {
	if filePath == "" {
		return "", false
	}

	// Strip compression extensions first
	path := filePath
	for {
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".gz" || ext == ".bz2" {
			path = strings.TrimSuffix(path, filepath.Ext(path))
			continue
		}
		break
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return query.FormatCSV, true
	case ".tsv":
		return query.FormatTSV, true
	default:
		return "", false
	}
}
