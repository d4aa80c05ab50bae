// Package abbreviate shortens labels so they fit a column budget while
// staying distinguishable from each other.
//
// # Overview
//
// Chart columns are sized to their widest label. When labels are long and
// many, the renderer asks this package for the narrowest width at which
// every label can still be told apart. Labels are cut either at the end
// ("metal..") or at the start ("..ysm"), whichever keeps them unique first.
//
// # Usage
//
//	width, abbreviations, err := abbreviate.Find(4, 9, []string{"lick", "metallick"})
//	// width == 6, abbreviations["metallick"] == "meta.."
//
// Widths are measured in grapheme clusters ([Width]), so CJK text and
// combining marks count as one character each.
package abbreviate
