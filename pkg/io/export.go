package io

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flat/pkg/dataset"
	"github.com/matzehuels/flat/pkg/errors"
)

// WriteDataset encodes d as a dataset document in the given format. The
// output can be read back with [ReadDataset].
func WriteDataset(d *dataset.Dataset, w io.Writer, format Format) error {
	doc := document{
		Headers: d.Headers(),
		Rows:    make([][]any, d.Len()),
	}
	for i := range doc.Rows {
		doc.Rows[i] = d.Row(i)
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	default:
		return errors.New(errors.ErrCodeUnsupported, "unsupported dataset format %q", format)
	}
	return nil
}

// WriteDatasetFile writes d to path in the format of its extension.
func WriteDatasetFile(d *dataset.Dataset, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDataset(d, f, format)
}
