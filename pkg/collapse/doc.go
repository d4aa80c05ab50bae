// Package collapse groups observations by their display path and lays
// them out as a grid.
//
// # Overview
//
// Every observation has a display path: its primary value followed by its
// ancestor values. [Collapse] emits one row per distinct path and merges
// shared prefixes. A shared label is printed once, on the middle row of
// its group, and joined to the rows of the next column by connectors:
//
//	C     B     A   |Sum(Count)
//	c1  - b1  - a1  |**
//	c2  ┘
//
// "┐" joins a label to a group that continues below it, "┘" to one that
// started above it, and "-" to a label on the same row.
//
// [Tree] renders the same paths as an indented directory listing.
//
// # Grouping
//
// Paths are grouped by the string projection of their values
// ([dataset.Format]), while row order follows the native order
// ([dataset.CompareTuples]). Two distinct values that print the same
// therefore share a row.
package collapse
