package io

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flat/pkg/dataset"
	"github.com/matzehuels/flat/pkg/errors"
)

// Format names a dataset document encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// document is the shape shared by every format.
type document struct {
	Headers []string `json:"headers" toml:"headers" yaml:"headers"`
	Rows    [][]any  `json:"rows" toml:"rows" yaml:"rows"`
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported dataset file %q (want .json, .toml, .yaml or .yml)", path)
}

// ReadDataset decodes a dataset document from r:
//
//	{"headers": ["animal", "size"], "rows": [["shark", "small"], ...]}
//
// Whole numbers decode as int64 and fractional numbers as float64 in every
// format. Null, nested arrays and objects are rejected. ReadDataset does
// not close r.
func ReadDataset(r io.Reader, format Format) (*dataset.Dataset, error) {
	var doc document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported dataset format %q", format)
	}
	return doc.dataset()
}

// ReadDatasetBytes decodes a dataset document held in memory.
func ReadDatasetBytes(data []byte, format Format) (*dataset.Dataset, error) {
	return ReadDataset(bytes.NewReader(data), format)
}

// ReadDatasetFile reads the dataset document at path. The format follows
// the file extension.
func ReadDatasetFile(path string) (*dataset.Dataset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDataset(f, format)
}

func (doc document) dataset() (*dataset.Dataset, error) {
	d, err := dataset.New(doc.Headers...)
	if err != nil {
		return nil, err
	}
	for i, row := range doc.Rows {
		values := make([]any, len(row))
		for j, v := range row {
			nv, err := normalize(v)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "row %d column %d", i, j)
			}
			values[j] = nv
		}
		if err := d.Add(values...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return d, nil
}

// normalize maps decoder output onto dimension values.
func normalize(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case int:
		return int64(x), nil
	case uint64:
		return x, nil
	case int64, float64, string, bool, time.Time:
		return x, nil
	case nil:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "null values are not supported")
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported value %v of type %T", v, v)
}
