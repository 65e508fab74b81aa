package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tokenFile := filepath.Join(dir, "token")
	if err := os.WriteFile(tokenFile, []byte("  from-file \n"), 0o600); err != nil {
		t.Fatalf("write token file: %v", err)
	}

	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	t.Setenv("WORKLOAD_RADAR_TEST_TOKEN", " from-env ")

	tests := []struct {
		name    string
		src     Source
		expect  string
		wantErr string
	}{
		{
			name:   "file wins over env and value",
			src:    Source{Name: "token", File: tokenFile, Env: "WORKLOAD_RADAR_TEST_TOKEN", Value: "inline"},
			expect: "from-file",
		},
		{
			name:   "env wins over value",
			src:    Source{Name: "token", Env: "WORKLOAD_RADAR_TEST_TOKEN", Value: "inline"},
			expect: "from-env",
		},
		{
			name:   "unset env falls back to value",
			src:    Source{Name: "token", Env: "WORKLOAD_RADAR_TEST_MISSING", Value: " inline "},
			expect: "inline",
		},
		{
			name:    "empty file",
			src:     Source{Name: "token", File: emptyFile},
			wantErr: "is empty",
		},
		{
			name:    "missing file",
			src:     Source{Name: "token", File: filepath.Join(dir, "nope")},
			wantErr: "reading token from file",
		},
		{
			name:    "nothing configured",
			src:     Source{},
			wantErr: "secret is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
