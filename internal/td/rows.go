package td

import (
	"bufio"
	"io"
	"strings"
)

// maxRowSize bounds a single formatted row.
const maxRowSize = 16 * 1024 * 1024

// Rows is a lazy, finite sequence of formatted result rows.
//
//	rows, err := client.ResultFormatEach(ctx, jobID, query.FormatTSV)
//	...
//	defer rows.Close()
//	for rows.Next() {
//	    fmt.Println(rows.Row())
//	}
//	return rows.Err()
type Rows struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	row     string
}

func newRows(body io.ReadCloser) *Rows {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxRowSize)
	return &Rows{body: body, scanner: scanner}
}

// Next advances to the next row. It returns false at the end of the stream or on error.
func (r *Rows) Next() bool {
	if !r.scanner.Scan() {
		r.row = ""
		return false
	}
	r.row = strings.TrimSuffix(r.scanner.Text(), "\r")
	return true
}

// Row returns the current row without its line terminator.
func (r *Rows) Row() string {
	return r.row
}

// Err returns the first read error, if any.
func (r *Rows) Err() error {
	return r.scanner.Err()
}

// Close releases the underlying response body.
func (r *Rows) Close() error {
	return r.body.Close()
}
