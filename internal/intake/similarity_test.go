package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "Jane Doe", b: "Jane Doe", want: 1.0},
		{name: "case insensitive", a: "JANE DOE", b: "jane doe", want: 1.0},
		{name: "whitespace trimmed", a: "  Jane Doe  ", b: "Jane Doe", want: 1.0},
		// 9 and 10 characters with 9 matching: 2*9/19.
		{name: "close spelling", a: "Jon Smith", b: "John Smith", want: 18.0 / 19.0},
		// 4 characters each, 3 matching: 2*3/8.
		{name: "one char differs", a: "abcd", b: "abcf", want: 0.75},
		{name: "nothing shared", a: "abc", b: "xyz", want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NameSimilarity(tt.a, tt.b), 0.0001)
		})
	}
}

func TestNameSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Jon Smith", "John Smith"},
		{"Katherine Reyes", "Kathryn Reyes"},
		{"abc def", "xyz"},
	}
	for _, pair := range pairs {
		assert.InDelta(t, NameSimilarity(pair[0], pair[1]), NameSimilarity(pair[1], pair[0]), 0.0001)
	}
}

func TestNameSimilarityThresholdBoundary(t *testing.T) {
	// 20 characters each sharing a 17-character prefix (including the
	// space): 2*17/40 = 0.85 exactly, right on the default threshold.
	atThreshold := NameSimilarity("abcdefghijklmnop 123", "abcdefghijklmnop 456")
	assert.InDelta(t, 0.85, atThreshold, 0.0000001)

	// One extra non-matching character on each side drops below.
	below := NameSimilarity("abcdefghijklmnop 1234", "abcdefghijklmnop 5678")
	assert.Less(t, below, 0.85)
}
