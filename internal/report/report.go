// Package report exports a workload dataset as a JSON document.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spigell/workload-radar/internal/dashboard"
	"github.com/spigell/workload-radar/internal/workload"
)

const timestampLayout = "20060102_150405"

// Document holds the people and work item tables of one fetch.
type Document struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Summary     dashboard.Summary   `json:"summary"`
	People      []workload.Person   `json:"people"`
	Items       []workload.WorkItem `json:"items"`
}

func New(ds *workload.Dataset, now time.Time) *Document {
	return &Document{
		GeneratedAt: now.UTC(),
		Summary:     dashboard.Summarize(ds),
		People:      ds.People,
		Items:       ds.Items,
	}
}

// Filename is report_<YYYYmmdd_HHMMSS>.json for the generation time.
func (d *Document) Filename() string {
	return fmt.Sprintf("report_%s.json", d.GeneratedAt.Format(timestampLayout))
}

func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// WriteFile stores the document in dir, or in the system temp directory
// when dir is empty, and returns the file path.
func (d *Document) WriteFile(dir string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	path := filepath.Join(dir, d.Filename())
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer file.Close()

	if err := d.Encode(file); err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return path, nil
}
