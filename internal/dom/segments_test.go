package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentTextFirstOccurrence(t *testing.T) {
	segments, ok := SegmentText("click Submit to send", "Submit", 0)
	require.True(t, ok)
	require.Len(t, segments, 3)
	assert.Equal(t, Segment{Text: "click "}, segments[0])
	assert.Equal(t, Segment{Text: "Submit", Match: true}, segments[1])
	assert.Equal(t, Segment{Text: " to send"}, segments[2])
}

func TestSegmentTextPicksNthOccurrence(t *testing.T) {
	segments, ok := SegmentText("Submit or Submit again", "Submit", 1)
	require.True(t, ok)
	require.Len(t, segments, 2)
	assert.Equal(t, Segment{Text: "Submit or "}, segments[0])
	assert.Equal(t, Segment{Text: "Submit", Match: true}, segments[1])
}

func TestSegmentTextExactMatchYieldsSingleSegment(t *testing.T) {
	segments, ok := SegmentText("Submit", "Submit", 0)
	require.True(t, ok)
	require.Len(t, segments, 1)
	assert.True(t, segments[0].Match)
}

func TestSegmentTextTooFewOccurrences(t *testing.T) {
	_, ok := SegmentText("Submit once", "Submit", 1)
	assert.False(t, ok)

	_, ok = SegmentText("no match here", "Submit", 0)
	assert.False(t, ok)
}

func TestSegmentTextRejectsNegativePick(t *testing.T) {
	_, ok := SegmentText("Submit", "Submit", -1)
	assert.False(t, ok)
}

func TestOccurrenceOffsetsNonOverlapping(t *testing.T) {
	assert.Equal(t, []int{0, 2}, occurrenceOffsets("aaaa", "aa"))
	assert.Nil(t, occurrenceOffsets("text", ""))
}
