package abbreviate

import (
	"slices"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/matzehuels/flat/pkg/errors"
)

// Moniker marks the truncated end of an abbreviated label.
const Moniker = ".."

// monikerWidth is the character count of [Moniker].
const monikerWidth = 2

// Width returns the number of user-perceived characters in s.
// Every width computation in flat goes through Width so that labels with
// combining marks or wide runes are measured the same way everywhere.
func Width(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// Find returns the smallest width in [minWidth, maxWidth] at which every
// value can be abbreviated uniquely, together with the abbreviation map.
//
// When the shortest value fits in minWidth but another value does not, the
// search starts at shortest+2 so the shortest value is never the one that
// forces a collision with its own truncated neighbours.
//
// If no width in range works, Find returns the longest value width and the
// identity map.
func Find(minWidth, maxWidth int, values []string) (int, map[string]string, error) {
	if minWidth > maxWidth {
		return 0, nil, errors.New(errors.ErrCodeInvalidInput, "minimum width %d exceeds maximum width %d", minWidth, maxWidth)
	}
	distinct := dedupe(values)
	if len(distinct) == 0 {
		return 0, nil, errors.New(errors.ErrCodeInvalidInput, "no values to abbreviate")
	}

	shortest, longest := Width(distinct[0]), Width(distinct[0])
	for _, v := range distinct[1:] {
		w := Width(v)
		shortest = min(shortest, w)
		longest = max(longest, w)
	}

	start := minWidth
	if shortest <= minWidth && longest > minWidth {
		start = max(minWidth, shortest+monikerWidth)
	}

	for w := start; w <= maxWidth; w++ {
		if m, ok := Generate(w, distinct); ok {
			return w, m, nil
		}
	}

	identity := make(map[string]string, len(distinct))
	for _, v := range distinct {
		identity[v] = v
	}
	return longest, identity, nil
}

// Generate abbreviates every value to at most width characters.
//
// Values that already fit are kept. Longer values first keep their leading
// characters (moniker appended); if that collides, they keep their trailing
// characters (moniker prepended). Uniqueness is checked on the kept
// characters before the moniker is added, so "cat" and "cat.." collide,
// and again on the final labels, so a kept "ab.." and a truncated "abXYZ"
// collide too. The second result is false when neither variant is unique.
func Generate(width int, values []string) (map[string]string, bool) {
	distinct := dedupe(values)
	keep := max(width-monikerWidth, 0)

	if m, ok := generate(width, distinct, func(v string) string { return head(v, keep) }, func(s string) string { return s + Moniker }); ok {
		return m, true
	}
	return generate(width, distinct, func(v string) string { return tail(v, keep) }, func(s string) string { return Moniker + s })
}

func generate(width int, values []string, cut func(string) string, mark func(string) string) (map[string]string, bool) {
	bodies := make(map[string]string, len(values))
	truncated := make(map[string]bool, len(values))
	seen := make(map[string]bool, len(values))

	for _, v := range values {
		body := v
		if Width(v) > width {
			body = cut(v)
			truncated[v] = true
		}
		if seen[body] {
			return nil, false
		}
		seen[body] = true
		bodies[v] = body
	}

	out := make(map[string]string, len(values))
	labels := make(map[string]bool, len(values))
	for v, body := range bodies {
		if truncated[v] {
			body = mark(body)
		}
		// A kept value may already end in the moniker.
		if labels[body] {
			return nil, false
		}
		labels[body] = true
		out[v] = body
	}
	return out, true
}

// head returns the first n characters of s.
func head(s string, n int) string {
	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for i := 0; i < n && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	return b.String()
}

// tail returns the last n characters of s.
func tail(s string, n int) string {
	var clusters []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		clusters = append(clusters, g.Str())
	}
	if n >= len(clusters) {
		return s
	}
	return strings.Join(clusters[len(clusters)-n:], "")
}

func dedupe(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}
