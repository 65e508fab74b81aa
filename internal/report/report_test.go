package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spigell/workload-radar/internal/workload"
)

func sample() *workload.Dataset {
	ds := workload.Empty()
	ds.People = []workload.Person{{Name: "Ana", Skills: []string{"go"}, FTE: 0.5}}
	ds.Items = []workload.WorkItem{{Title: "Migrate", ActualProgress: 0.2, PlannedProgress: 0.4}}
	return ds
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)

	if got := New(sample(), now).Filename(); got != "report_20240309_070501.json" {
		t.Fatalf("unexpected filename: %s", got)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)

	path, err := New(sample(), now).WriteFile(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "report_20240309_070501.json") {
		t.Fatalf("unexpected path: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("report is not json: %v", err)
	}
	for _, key := range []string{"generated_at", "summary", "people", "items"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("expected %q section in report", key)
		}
	}
	if people := doc["people"].([]any); len(people) != 1 {
		t.Fatalf("expected one person, got %v", people)
	}
}

func TestEncodeEmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	if err := New(workload.Empty(), time.Now()).Encode(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.People == nil || doc.Items == nil || len(doc.People) != 0 {
		t.Fatalf("expected empty tables to encode as arrays, got %+v", doc)
	}
}

func TestWriteFileMissingDir(t *testing.T) {
	if _, err := New(sample(), time.Now()).WriteFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
