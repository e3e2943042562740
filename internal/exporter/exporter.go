package exporter

import (
	"bufio"
	"fmt"
	"io"
)

// Result contains the result of a stream operation.
type Result struct {
	RowCount int
}

// RowSource is a lazy sequence of formatted rows, such as *td.Rows.
type RowSource interface {
	Next() bool
	Row() string
	Err() error
}

// RowSink receives every streamed row in addition to the output writer.
type RowSink interface {
	WriteRow(row string) error
}

// Stream copies every row from src to out, one per line.
// If sink is non-nil each row is also handed to it.
func Stream(src RowSource, out io.Writer, sink RowSink) (*Result, error) {
	w := bufio.NewWriter(out)

	rowCount := 0
	for src.Next() {
		row := src.Row()
		if _, err := w.WriteString(row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
		if sink != nil {
			if err := sink.WriteRow(row); err != nil {
				return nil, fmt.Errorf("failed to archive row %d: %w", rowCount+1, err)
			}
		}
		rowCount++
	}

	if err := src.Err(); err != nil {
		_ = w.Flush()
		return nil, fmt.Errorf("error reading result rows: %w", err)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush output: %w", err)
	}

	return &Result{RowCount: rowCount}, nil
}
