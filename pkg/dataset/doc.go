// Package dataset holds the rows charts are drawn from.
//
// # Overview
//
// A [Dataset] is an append-only table: a list of headers and records
// whose values are dimension values (strings, numbers, booleans, times or
// anything with a String method). A [View] projects the dataset through a
// [Roles] map that says which column is the primary grouping key, which
// one (if any) is the breakdown, which columns are displayed as labels
// and which column is measured. Charts consume views through the
// [Source] interface.
//
// # Usage
//
//	ds, _ := dataset.New("animal", "size", "weight")
//	ds.Add("shark", "large", 900)
//	ds.Add("tiger", "medium", 220)
//
//	view, _ := ds.Measuring(2)   // primary "animal", display "size", measure "weight"
//	view, _ = ds.Counting()      // every record measures 1
//
// # Ordering
//
// [Compare] is the native total order used to sort rows and breakdown
// keys: numbers by value, times chronologically, everything else by its
// string form. Grouping, however, uses the string projection [Format], so
// two distinct values that print the same are merged into one group.
package dataset
