package meeting

import (
	"fmt"
	"regexp"
)

// minMarkers is how many "Section N" markers must be present before the
// transcript is sliced on markers instead of into equal chunks.
const minMarkers = 3

var sectionMarkers = func() [SectionCount]*regexp.Regexp {
	var out [SectionCount]*regexp.Regexp
	for i := range out {
		out[i] = mustCompile(fmt.Sprintf(`(?i)section\s+%d[:\s]`, i+1))
	}
	return out
}()

// Segment splits a transcript into exactly six sections.
//
// When at least three "Section N" markers are found, the transcript is
// sliced at each marker's offset. Offsets are taken in marker order 1..6,
// not sorted, and any missing trailing slots are empty. Otherwise the
// transcript is cut into six equal runs of characters with the last run
// taking the remainder.
func Segment(transcript string) []string {
	var positions []int
	for _, marker := range sectionMarkers {
		if loc := marker.FindStringIndex(transcript); loc != nil {
			positions = append(positions, loc[0])
		}
	}

	if len(positions) >= minMarkers {
		return segmentByMarkers(transcript, positions)
	}
	return segmentEvenly(transcript)
}

func segmentByMarkers(transcript string, positions []int) []string {
	sections := make([]string, 0, SectionCount)
	for i, start := range positions {
		end := len(transcript)
		if i < len(positions)-1 {
			end = positions[i+1]
		}
		sections = append(sections, slice(transcript, start, end))
	}
	for len(sections) < SectionCount {
		sections = append(sections, "")
	}
	return sections
}

// slice returns s[a:b], swapping the bounds when markers appear out of order.
func slice(s string, a, b int) string {
	if a > b {
		a, b = b, a
	}
	return s[a:b]
}

func segmentEvenly(transcript string) []string {
	// byte offset of every character, plus the end of the string
	offsets := make([]int, 0, len(transcript)+1)
	for i := range transcript {
		offsets = append(offsets, i)
	}
	chars := len(offsets)
	offsets = append(offsets, len(transcript))
	size := chars / SectionCount

	sections := make([]string, SectionCount)
	for i := range sections {
		start := offsets[i*size]
		end := offsets[(i+1)*size]
		if i == SectionCount-1 {
			end = len(transcript)
		}
		sections[i] = transcript[start:end]
	}
	return sections
}
