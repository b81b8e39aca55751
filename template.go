package goforma

import (
	"strconv"
	"strings"
)

// Template paths address schema nodes without committing to indices: each
// array item scope is written as a [] suffix on the array name, so the email
// field of a members item is "members[].email" and a nested matrix cell is
// "matrix[][]". Concrete paths carry numeric segments instead
// ("members.2.email"). Dependency edges are stored as templates and matched
// against concrete change paths at invalidation time.

const itemMarker = "[]"

// tseg is one template segment: a name plus how many item scopes it opens.
type tseg struct {
	name  string
	items int
}

func templateSegs(template string) []tseg {
	parts := SplitPath(template)
	out := make([]tseg, 0, len(parts))
	for _, p := range parts {
		n := 0
		for strings.HasSuffix(p, itemMarker) {
			p = strings.TrimSuffix(p, itemMarker)
			n++
		}
		out = append(out, tseg{name: p, items: n})
	}
	return out
}

// TemplateMatch relates a concrete path to a template path.
type TemplateMatch struct {
	// Indices captured for each [] marker matched, left to right.
	Indices []int
	// Exact: the concrete path addresses the template node itself.
	Exact bool
	// Inside: the concrete path lies within the template node's subtree.
	Inside bool
	// Above: the concrete path addresses an ancestor of the template node.
	Above bool
}

// Touches reports whether a change at the matched concrete path can affect
// the value addressed by the template.
func (m TemplateMatch) Touches() bool { return m.Exact || m.Inside || m.Above }

// MatchTemplate walks a template and a concrete path together. It reports
// how the two relate; ok is false when they diverge (no overlap at all).
func MatchTemplate(template, concrete string) (TemplateMatch, bool) {
	var m TemplateMatch
	segs := templateSegs(template)
	conc := SplitPath(concrete)
	k := 0
	for _, ts := range segs {
		if k >= len(conc) {
			m.Above = true
			return m, true
		}
		if conc[k] != ts.name {
			return TemplateMatch{}, false
		}
		k++
		for i := 0; i < ts.items; i++ {
			if k >= len(conc) {
				m.Above = true
				return m, true
			}
			idx, numeric := tryParseIndex(conc[k])
			if !numeric {
				return TemplateMatch{}, false
			}
			m.Indices = append(m.Indices, idx)
			k++
		}
	}
	if k == len(conc) {
		m.Exact = true
	} else {
		m.Inside = true
	}
	return m, true
}

// FillTemplate substitutes indices for [] markers left to right and returns
// the resulting path plus the count of markers left unfilled. A path with
// unfilled markers still contains [] and must be expanded against live array
// lengths before use.
func FillTemplate(template string, indices []int) (string, int) {
	segs := templateSegs(template)
	b := &strings.Builder{}
	used := 0
	unfilled := 0
	for i, ts := range segs {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(ts.name)
		for j := 0; j < ts.items; j++ {
			if used < len(indices) {
				b.WriteByte('.')
				b.WriteString(strconv.Itoa(indices[used]))
				used++
			} else {
				b.WriteString(itemMarker)
				unfilled++
			}
		}
	}
	return b.String(), unfilled
}

// CountMarkers returns the number of [] markers in a template.
func CountMarkers(template string) int {
	n := 0
	for _, ts := range templateSegs(template) {
		n += ts.items
	}
	return n
}
