// Package importer loads streamed result rows into the local SQLite archive.
package importer

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tdquery/tdquery-go/internal/database"
)

// Result contains the result of an import operation.
type Result struct {
	TableName string
	Columns   []string
	RowCount  int
}

// Archive receives formatted rows one at a time and writes them to a table
// in batches of database.BatchSize. It satisfies exporter.RowSink.
//
// When no column names are known up front the table is created on the first
// row with generated names col1..colN.
type Archive struct {
	db        *sql.DB
	tableName string
	headers   []string
	delimiter rune

	batch   [][]string
	created bool
	closed  bool
}

// NewArchive prepares an archive for tableName. columns may be empty.
func NewArchive(db *sql.DB, tableName string, columns []string, delimiter rune) (*Archive, error) {
	a := &Archive{
		db:        db,
		tableName: database.SanitizeName(tableName),
		delimiter: delimiter,
		batch:     make([][]string, 0, database.BatchSize),
	}
	if len(columns) > 0 {
		if err := a.create(columns); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Archive) create(headers []string) error {
	if err := database.CreateTable(a.db, a.tableName, headers); err != nil {
		return fmt.Errorf("archive table %s: %w", a.tableName, err)
	}
	a.headers = headers
	a.created = true
	return nil
}

// WriteRow parses one formatted row and queues it for insertion.
func (a *Archive) WriteRow(row string) error {
	if a.closed {
		return errors.New("archive is closed")
	}

	record, err := ParseRow(row, a.delimiter)
	if err != nil {
		return err
	}

	if !a.created {
		headers := make([]string, len(record))
		for i := range headers {
			headers[i] = fmt.Sprintf("col%d", i+1)
		}
		if err := a.create(headers); err != nil {
			return err
		}
	}

	a.batch = append(a.batch, record)

	// When batch is full, write it immediately
	if len(a.batch) >= database.BatchSize {
		return a.flush()
	}
	return nil
}

func (a *Archive) flush() error {
	if len(a.batch) == 0 {
		return nil
	}
	if err := database.InsertBatch(a.db, a.tableName, a.headers, a.batch); err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	a.batch = a.batch[:0]
	return nil
}

// Close writes any queued rows and reports what the archive table holds.
// An archive that saw no rows and had no columns creates no table.
func (a *Archive) Close() (*Result, error) {
	if a.closed {
		return nil, errors.New("archive is closed")
	}
	a.closed = true

	if err := a.flush(); err != nil {
		return nil, fmt.Errorf("failed to insert final batch: %w", err)
	}

	result := &Result{TableName: a.tableName}
	if !a.created {
		return result, nil
	}

	columns, err := database.GetTableColumns(a.db, a.tableName)
	if err != nil {
		return nil, err
	}
	count, err := database.CountRows(a.db, a.tableName)
	if err != nil {
		return nil, err
	}
	result.Columns = columns
	result.RowCount = count
	return result, nil
}

// ParseRow splits a single csv or tsv formatted row into fields.
func ParseRow(row string, delimiter rune) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(row))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	record, err := reader.Read()
	if err == io.EOF {
		return []string{""}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse row: %w", err)
	}
	return record, nil
}
