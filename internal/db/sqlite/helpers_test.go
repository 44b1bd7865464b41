package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/medagent/internal/domain"
)

// writeHeartFixture creates a heart_disease table with the given ages and returns its path.
func writeHeartFixture(t *testing.T, ages ...int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "heart_disease.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE heart_disease (age INTEGER, sex TEXT, chol REAL, target INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for i, age := range ages {
		sex := "M"
		if i%2 == 1 {
			sex = "F"
		}
		if _, err := db.Exec(`INSERT INTO heart_disease VALUES (?, ?, ?, ?)`, age, sex, 200.5+float64(i), i%2); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	return path
}

func openHeartTool(t *testing.T, path string, maxRows int) *Tool {
	t.Helper()

	tool, err := Open(Config{Domain: domain.Heart, Path: path, Table: "heart_disease", MaxRows: maxRows})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = tool.Close() })
	return tool
}
