package importer

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tdquery/tdquery-go/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestParseRow(t *testing.T) {
	tests := []struct {
		name      string
		row       string
		delimiter rune
		want      []string
	}{
		{"csv", "1,Alice,30", ',', []string{"1", "Alice", "30"}},
		{"csv quoted comma", `2,"Bob, Jr.",25`, ',', []string{"2", "Bob, Jr.", "25"}},
		{"tsv", "3\tCharlie\t35", '\t', []string{"3", "Charlie", "35"}},
		{"tsv stray quote", "4\tsay \"hi\t1", '\t', []string{"4", `say "hi`, "1"}},
		{"empty fields", "a,,c", ',', []string{"a", "", "c"}},
		{"empty row", "", ',', []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRow(tt.row, tt.delimiter)
			if err != nil {
				t.Fatalf("ParseRow(%q) error = %v", tt.row, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRow(%q) = %q, want %q", tt.row, got, tt.want)
			}
		})
	}
}

func TestArchiveWithSchema(t *testing.T) {
	db := openTestDB(t)

	archive, err := NewArchive(db.DB, "www_access", []string{"host", "path", "code"}, '\t')
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}

	for _, row := range []string{"10.0.0.1\t/index.html\t200", "10.0.0.2\t/missing\t404"} {
		if err := archive.WriteRow(row); err != nil {
			t.Fatalf("WriteRow(%q) error = %v", row, err)
		}
	}

	result, err := archive.Close()
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if result.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", result.RowCount)
	}
	if result.TableName != "www_access" {
		t.Errorf("TableName = %q, want %q", result.TableName, "www_access")
	}

	var code string
	if err := db.QueryRow("SELECT code FROM www_access WHERE path = '/missing'").Scan(&code); err != nil {
		t.Fatalf("QueryRow() error = %v", err)
	}
	if code != "404" {
		t.Errorf("code = %q, want %q", code, "404")
	}
}

func TestArchiveWithoutSchema(t *testing.T) {
	db := openTestDB(t)

	archive, err := NewArchive(db.DB, "logs", nil, ',')
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}
	for _, row := range []string{"1,Alice,30", "2,Bob,25", "3,Charlie,35"} {
		if err := archive.WriteRow(row); err != nil {
			t.Fatalf("WriteRow(%q) error = %v", row, err)
		}
	}
	result, err := archive.Close()
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if result.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", result.RowCount)
	}

	// Verify column names are auto-generated
	columns, err := database.GetTableColumns(db.DB, "logs")
	if err != nil {
		t.Fatalf("GetTableColumns() error = %v", err)
	}
	if !reflect.DeepEqual(columns, []string{"col1", "col2", "col3"}) {
		t.Errorf("columns = %v, want [col1 col2 col3]", columns)
	}
}

func TestArchiveFlushesFullBatches(t *testing.T) {
	db := openTestDB(t)

	archive, err := NewArchive(db.DB, "big", []string{"n"}, ',')
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}

	total := database.BatchSize + 5
	for i := 0; i < total; i++ {
		if err := archive.WriteRow(fmt.Sprint(i)); err != nil {
			t.Fatalf("WriteRow() error = %v", err)
		}
	}

	// The first full batch is already committed before Close.
	count, err := database.CountRows(db.DB, "big")
	if err != nil {
		t.Fatalf("CountRows() error = %v", err)
	}
	if count != database.BatchSize {
		t.Errorf("rows before Close = %d, want %d", count, database.BatchSize)
	}

	if _, err := archive.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	count, _ = database.CountRows(db.DB, "big")
	if count != total {
		t.Errorf("rows after Close = %d, want %d", count, total)
	}
}

func TestArchiveEmptyCreatesNoTable(t *testing.T) {
	db := openTestDB(t)

	archive, err := NewArchive(db.DB, "nothing", nil, '\t')
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}
	result, err := archive.Close()
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if result.RowCount != 0 {
		t.Errorf("RowCount = %d, want 0", result.RowCount)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='nothing'").Scan(&n); err != nil {
		t.Fatalf("QueryRow() error = %v", err)
	}
	if n != 0 {
		t.Error("Expected no table for an empty archive without schema")
	}
}

func TestArchiveClosed(t *testing.T) {
	db := openTestDB(t)

	archive, err := NewArchive(db.DB, "t", []string{"a"}, ',')
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}
	if _, err := archive.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := archive.WriteRow("x"); err == nil {
		t.Error("Expected WriteRow after Close to fail")
	}
	if _, err := archive.Close(); err == nil {
		t.Error("Expected second Close to fail")
	}
}

func TestArchiveKeywordNames(t *testing.T) {
	db := openTestDB(t)

	archive, err := NewArchive(db.DB, "order", []string{"from", "to", "group"}, '\t')
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}
	if err := archive.WriteRow("2024-01-01\t2024-01-02\tA"); err != nil {
		t.Fatalf("WriteRow() error = %v", err)
	}
	result, err := archive.Close()
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if result.TableName != "order" || result.RowCount != 1 {
		t.Errorf("Close() = %+v, want table order with 1 row", result)
	}
	if want := []string{"from", "to", "group"}; !reflect.DeepEqual(result.Columns, want) {
		t.Errorf("Columns = %v, want %v", result.Columns, want)
	}
}

func TestArchiveDuplicateSchemaColumns(t *testing.T) {
	db := openTestDB(t)

	archive, err := NewArchive(db.DB, "logs", []string{"id", "id", "id_2"}, ',')
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}
	if err := archive.WriteRow("1,2,3"); err != nil {
		t.Fatalf("WriteRow() error = %v", err)
	}
	result, err := archive.Close()
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if want := []string{"id", "id_3", "id_2"}; !reflect.DeepEqual(result.Columns, want) {
		t.Errorf("Columns = %v, want %v", result.Columns, want)
	}
}

func TestArchiveCreateErrorNotRepeated(t *testing.T) {
	db := openTestDB(t)
	db.Close()

	_, err := NewArchive(db.DB, "logs", []string{"a"}, ',')
	if err == nil {
		t.Fatal("Expected NewArchive on a closed database to fail")
	}
	if n := strings.Count(err.Error(), "failed to"); n != 1 {
		t.Errorf("error %q repeats its context %d times", err, n)
	}
}
