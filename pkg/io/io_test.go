package io

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/flat/pkg/errors"
)

func TestReadDataset(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		format  Format
		input   string
		headers []string
		rows    [][]any
	}{
		{
			name:    "json",
			format:  FormatJSON,
			input:   `{"headers": ["animal", "weight", "tame"], "rows": [["shark", 120, false], ["whale", 4.5e4, false], ["cat", 4.2, true]]}`,
			headers: []string{"animal", "weight", "tame"},
			rows:    [][]any{{"shark", int64(120), false}, {"whale", float64(45000), false}, {"cat", 4.2, true}},
		},
		{
			name:   "toml",
			format: FormatTOML,
			input: `headers = ["animal", "weight", "seen"]
rows = [
  ["shark", 120, 2024-03-01T12:00:00Z],
  ["cat", 4.2, 2024-03-01T12:00:00Z],
]`,
			headers: []string{"animal", "weight", "seen"},
			rows:    [][]any{{"shark", int64(120), when}, {"cat", 4.2, when}},
		},
		{
			name:   "yaml",
			format: FormatYAML,
			input: `headers: [animal, weight, tame]
rows:
  - [shark, 120, false]
  - [cat, 4.2, true]
`,
			headers: []string{"animal", "weight", "tame"},
			rows:    [][]any{{"shark", int64(120), false}, {"cat", 4.2, true}},
		},
		{
			name:    "no rows",
			format:  FormatJSON,
			input:   `{"headers": ["animal"]}`,
			headers: []string{"animal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ReadDataset(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("ReadDataset() error = %v", err)
			}
			if got := d.Headers(); !reflect.DeepEqual(got, tt.headers) {
				t.Errorf("Headers() = %v, want %v", got, tt.headers)
			}
			if d.Len() != len(tt.rows) {
				t.Fatalf("Len() = %d, want %d", d.Len(), len(tt.rows))
			}
			for i, want := range tt.rows {
				got := d.Row(i)
				for j := range want {
					if gt, ok := got[j].(time.Time); ok {
						if !gt.Equal(want[j].(time.Time)) {
							t.Errorf("row %d[%d] = %v, want %v", i, j, got[j], want[j])
						}
						continue
					}
					if got[j] != want[j] {
						t.Errorf("row %d[%d] = %#v, want %#v", i, j, got[j], want[j])
					}
				}
			}
		})
	}
}

func TestReadDatasetErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
		code   errors.Code
	}{
		{"malformed json", FormatJSON, `{"headers": [`, errors.ErrCodeInvalidFormat},
		{"malformed yaml", FormatYAML, "headers: [a\nrows: {", errors.ErrCodeInvalidFormat},
		{"null value", FormatJSON, `{"headers": ["a"], "rows": [[null]]}`, errors.ErrCodeInvalidFormat},
		{"nested value", FormatJSON, `{"headers": ["a"], "rows": [[[1, 2]]]}`, errors.ErrCodeInvalidFormat},
		{"object value", FormatJSON, `{"headers": ["a"], "rows": [[{"x": 1}]]}`, errors.ErrCodeInvalidFormat},
		{"short row", FormatJSON, `{"headers": ["a", "b"], "rows": [["x"]]}`, errors.ErrCodeInvalidInput},
		{"no headers", FormatJSON, `{"rows": []}`, errors.ErrCodeInvalidInput},
		{"duplicate headers", FormatJSON, `{"headers": ["a", "a"]}`, errors.ErrCodeInvalidColumn},
		{"unknown format", Format("csv"), `a,b`, errors.ErrCodeUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDataset(strings.NewReader(tt.input), tt.format)
			if !errors.Is(err, tt.code) {
				t.Errorf("ReadDataset() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"zoo.json", FormatJSON, false},
		{"dir/zoo.TOML", FormatTOML, false},
		{"zoo.yml", FormatYAML, false},
		{"zoo.yaml", FormatYAML, false},
		{"zoo.csv", "", true},
		{"zoo", "", true},
	}

	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("FormatFromPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	src, err := ReadDataset(strings.NewReader(
		`{"headers": ["animal", "size", "weight"], "rows": [["shark", "small", 120], ["whale", "large", 4.5]]}`,
	), FormatJSON)
	if err != nil {
		t.Fatalf("ReadDataset() error = %v", err)
	}

	for _, format := range []Format{FormatJSON, FormatTOML, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteDataset(src, &buf, format); err != nil {
				t.Fatalf("WriteDataset() error = %v", err)
			}
			got, err := ReadDataset(&buf, format)
			if err != nil {
				t.Fatalf("ReadDataset() error = %v\n%s", err, buf.String())
			}
			if !reflect.DeepEqual(got.Headers(), src.Headers()) {
				t.Errorf("Headers() = %v, want %v", got.Headers(), src.Headers())
			}
			for i := range src.Len() {
				if !reflect.DeepEqual(got.Row(i), src.Row(i)) {
					t.Errorf("Row(%d) = %#v, want %#v", i, got.Row(i), src.Row(i))
				}
			}
		})
	}
}

func TestReadDatasetFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zoo.yaml")
	if err := os.WriteFile(path, []byte("headers: [animal]\nrows: [[shark], [whale]]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	d, err := ReadDatasetFile(path)
	if err != nil {
		t.Fatalf("ReadDatasetFile() error = %v", err)
	}
	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}

	if _, err := ReadDatasetFile(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ReadDatasetFile(missing) error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}

	out := filepath.Join(dir, "zoo.toml")
	if err := WriteDatasetFile(d, out); err != nil {
		t.Fatalf("WriteDatasetFile() error = %v", err)
	}
	back, err := ReadDatasetFile(out)
	if err != nil {
		t.Fatalf("ReadDatasetFile(%s) error = %v", out, err)
	}
	if back.Len() != 2 {
		t.Errorf("Len() = %d, want 2", back.Len())
	}
}
