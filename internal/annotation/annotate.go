// Package annotation locates clinical measurement substrings inside free-text
// findings and classifies each as in or out of its normal range. It is a leaf
// package: the report state machine supplies texts, the UI shell renders the
// returned segments.
package annotation

import (
	"sort"
	"strings"

	"github.com/vetreport-server/internal/domain"
)

// SegmentKind distinguishes plain text runs from highlighted measurements
type SegmentKind string

const (
	SegmentPlain     SegmentKind = "plain"
	SegmentHighlight SegmentKind = "highlight"
)

// Segment is one run of the annotated text. Concatenating the Text of all
// segments in order reproduces the input exactly.
type Segment struct {
	Kind       SegmentKind           `json:"kind"`
	Text       string                `json:"text"`
	Value      *domain.AbnormalValue `json:"value,omitempty"`
	OutOfRange bool                  `json:"out_of_range,omitempty"`
}

// region is an accepted highlight span over the input text
type region struct {
	start int
	end   int
	value domain.AbnormalValue
}

// Annotate computes a non-overlapping set of highlighted spans for the given
// text. Candidates are matched longest-first so that a longer value like
// "11.05 mm" is never pre-empted by a shorter overlapping candidate such as
// "05 mm"; ties keep input order. Only the first occurrence of each value's
// text is considered, and candidates whose span would overlap an accepted
// region are dropped silently.
func Annotate(text string, values []domain.AbnormalValue, enabled bool) []Segment {
	if !enabled || len(values) == 0 {
		return []Segment{{Kind: SegmentPlain, Text: text}}
	}

	candidates := make([]domain.AbnormalValue, len(values))
	copy(candidates, values)
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].Text) > len(candidates[j].Text)
	})

	var accepted []region
	for _, v := range candidates {
		idx := strings.Index(text, v.Text)
		if idx < 0 {
			continue
		}
		end := idx + len(v.Text)
		if overlapsAny(accepted, idx, end) {
			continue
		}
		accepted = append(accepted, region{start: idx, end: end, value: v})
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].start < accepted[j].start
	})

	if len(accepted) == 0 {
		return []Segment{{Kind: SegmentPlain, Text: text}}
	}

	segments := make([]Segment, 0, 2*len(accepted)+1)
	last := 0
	for _, r := range accepted {
		if r.start > last {
			segments = append(segments, Segment{Kind: SegmentPlain, Text: text[last:r.start]})
		}
		v := r.value
		segments = append(segments, Segment{
			Kind:       SegmentHighlight,
			Text:       text[r.start:r.end],
			Value:      &v,
			OutOfRange: v.OutOfRange(),
		})
		last = r.end
	}
	if last < len(text) {
		segments = append(segments, Segment{Kind: SegmentPlain, Text: text[last:]})
	}
	return segments
}

// overlapsAny reports whether [start,end) intersects any accepted region
func overlapsAny(regions []region, start, end int) bool {
	for _, r := range regions {
		if start < r.end && end > r.start {
			return true
		}
	}
	return false
}
