package dom

import "strings"

// Segment is one piece of a split text run. Exactly one segment of a
// successful split carries Match=true.
type Segment struct {
	Text  string
	Match bool
}

// occurrenceOffsets returns the byte offsets of every non-overlapping
// occurrence of target within text, left to right.
func occurrenceOffsets(text, target string) []int {
	if target == "" {
		return nil
	}
	var offsets []int
	from := 0
	for {
		i := strings.Index(text[from:], target)
		if i < 0 {
			return offsets
		}
		offsets = append(offsets, from+i)
		from += i + len(target)
	}
}

// SegmentText splits text around the pick-th occurrence (0-indexed) of
// target. Pure: no document tree involved, which keeps the order-dependent
// splitting algorithm testable in isolation. ok is false when text holds
// fewer than pick+1 occurrences.
func SegmentText(text, target string, pick int) ([]Segment, bool) {
	offsets := occurrenceOffsets(text, target)
	if pick < 0 || pick >= len(offsets) {
		return nil, false
	}
	start := offsets[pick]
	end := start + len(target)

	segments := make([]Segment, 0, 3)
	if start > 0 {
		segments = append(segments, Segment{Text: text[:start]})
	}
	segments = append(segments, Segment{Text: text[start:end], Match: true})
	if end < len(text) {
		segments = append(segments, Segment{Text: text[end:]})
	}
	return segments, true
}
