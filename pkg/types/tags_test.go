package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "", want: ""},
		{name: "blank", raw: "   ", want: ""},
		{name: "only separators", raw: " , ,, ", want: ""},
		{name: "single", raw: "work", want: "work"},
		{name: "trims pieces", raw: "  work ,home  ", want: "work, home"},
		{name: "duplicates and blanks", raw: "a, A, b,, b ,c", want: "a, b, c"},
		{name: "first casing wins", raw: "Urgent, urgent, URGENT", want: "Urgent"},
		{name: "keeps first-seen order", raw: "z, y, Z, x", want: "z, y, x"},
		{name: "inner spaces kept", raw: "deep work, Deep Work", want: "deep work"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.raw))
		})
	}
}

func TestNormalizeTagsIdempotent(t *testing.T) {
	inputs := []string{"", "a", "a, A, b,, b ,c", " x ,y,, X ", "Home, work, home"}
	for _, in := range inputs {
		once := NormalizeTags(in)
		assert.Equal(t, once, NormalizeTags(once), "input %q", in)
	}
}

func TestMatchesTag(t *testing.T) {
	assert.True(t, MatchesTag("Work, Home", "work"))
	assert.True(t, MatchesTag("Work, Home", "ome"), "substring match")
	assert.False(t, MatchesTag("Work, Home", "garden"))
	assert.False(t, MatchesTag("", "work"))
}
