package dataset

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "heart.csv",
		"\ufeffage,sex,chol,oldpeak,note\n"+
			"63,1,233,2.3,typical\n"+
			"37,1,250,3.5,\n"+
			"41,0,204,1,\"a, b\"\n")
	dbPath := filepath.Join(dir, "db", "heart_disease.db")

	stats, err := NewLoader(nil).Load(context.Background(), Source{CSVPath: csvPath, DBPath: dbPath, Table: "heart_disease"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stats.Rows != 3 {
		t.Errorf("rows = %d, want 3", stats.Rows)
	}
	wantTypes := []string{"INTEGER", "INTEGER", "INTEGER", "REAL", "TEXT"}
	for i, w := range wantTypes {
		if stats.Types[i] != w {
			t.Errorf("type[%s] = %s, want %s", stats.Columns[i], stats.Types[i], w)
		}
	}
	if stats.Columns[0] != "age" {
		t.Errorf("BOM not stripped from header: %q", stats.Columns[0])
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var avg float64
	if err := db.QueryRow("SELECT AVG(age) FROM heart_disease").Scan(&avg); err != nil {
		t.Fatalf("query: %v", err)
	}
	if avg != 47 {
		t.Errorf("avg age = %v, want 47", avg)
	}

	var nulls int
	if err := db.QueryRow("SELECT COUNT(*) FROM heart_disease WHERE note IS NULL").Scan(&nulls); err != nil {
		t.Fatalf("query: %v", err)
	}
	if nulls != 1 {
		t.Errorf("empty values should load as NULL, got %d nulls", nulls)
	}
}

func TestLoad_ReplacesExistingTable(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "diabetes.db")
	loader := NewLoader(nil)

	first := writeFile(t, dir, "a.csv", "glucose\n100\n120\n140\n")
	if _, err := loader.Load(context.Background(), Source{CSVPath: first, DBPath: dbPath, Table: "diabetes"}); err != nil {
		t.Fatalf("first load: %v", err)
	}
	second := writeFile(t, dir, "b.csv", "glucose,insulin\n90,0\n")
	if _, err := loader.Load(context.Background(), Source{CSVPath: second, DBPath: dbPath, Table: "diabetes"}); err != nil {
		t.Fatalf("second load: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM diabetes").Scan(&n); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1 after replace", n)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(nil)

	_, err := loader.Load(context.Background(), Source{
		CSVPath: filepath.Join(dir, "missing.csv"),
		DBPath:  filepath.Join(dir, "x.db"),
		Table:   "x",
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	empty := writeFile(t, dir, "empty.csv", "")
	_, err = loader.Load(context.Background(), Source{CSVPath: empty, DBPath: filepath.Join(dir, "x.db"), Table: "x"})
	if !errors.Is(err, errEmptyCSV) {
		t.Errorf("expected errEmptyCSV, got %v", err)
	}

	ragged := writeFile(t, dir, "ragged.csv", "a,b\n1\n")
	if _, err := loader.Load(context.Background(), Source{CSVPath: ragged, DBPath: filepath.Join(dir, "x.db"), Table: "x"}); err == nil {
		t.Error("expected error for ragged rows")
	}
}

func TestInferTypes(t *testing.T) {
	records := [][]string{
		{"1", "1.5", "x", "", "7"},
		{"2", "2", "3", "", "1e3"},
	}
	got := inferTypes(5, records)
	want := []string{"INTEGER", "REAL", "TEXT", "INTEGER", "REAL"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("col %d = %s, want %s", i, got[i], want[i])
		}
	}
}
