// Package io reads and writes dataset documents.
//
// # Format
//
// A dataset document has a header list and a list of rows. Every row has
// one value per header:
//
//	{
//	  "headers": ["animal", "size", "weight"],
//	  "rows": [
//	    ["shark", "medium", 120.5],
//	    ["whale", "large", 40000]
//	  ]
//	}
//
// The same shape is accepted as TOML and YAML:
//
//	headers = ["animal", "size"]
//	rows = [["shark", "medium"], ["whale", "large"]]
//
// Values may be strings, booleans, numbers or TOML datetimes.
// Whole numbers decode as int64 so that histograms bin them with whole
// widths; fractional numbers decode as float64. Null and nested values
// are rejected with ErrCodeInvalidFormat.
//
// # Import
//
// Use [ReadDatasetFile] to read a file, picking the format from its
// extension, or [ReadDataset] to read from any io.Reader:
//
//	d, err := io.ReadDatasetFile("zoo.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Export
//
// [WriteDataset] and [WriteDatasetFile] write the same document shape, so
// a dataset survives conversion between formats.
package io
